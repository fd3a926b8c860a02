package parser

// ListingPrompt instructs the model to return every release in a pasted
// listing as structured JSON.
const ListingPrompt = `You extract anime episode releases from messy pasted listings.

Return JSON only, shaped as:
{"episodes": [{"anime_name": "...", "season": "S01", "episode": "E01", "quality": "720p", "audio": "Single", "url": "https://..."}]}

Rules:
- One object per distinct download link.
- anime_name is the clean series title without numbering, resolution, audio, language tags, uploader handles, or file extensions.
- season is "S" plus two digits. When only an episode number is given, use "S01".
- episode is "E" plus two digits.
- quality is one of 480p, 720p, 1080p, 2160p, 4K, 2K. Use "720p" when absent.
- audio is "Single", "Dual", or "Dubbed". Subbed/Sub mean Single; Dub means Dubbed; Multi means Dual. Use "Single" when absent.
- url is the exact link text, unmodified.
- Skip entries that have no link.
- If nothing can be extracted, return {"episodes": []}.`
