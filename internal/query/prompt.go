package query

import (
	"fmt"
	"strings"
)

const systemPrompt = `You interpret anime catalog search queries and return search parameters.

Return JSON only, shaped as:
{"anime_name": "name or null", "season": "S01 or null", "episode": "E01 or null", "quality": "720p or null", "audio": "Dual or null", "intent": "search"}

Rules:
- Prefer an exact title from the available list when the query refers to one.
- Use null for every parameter the query does not mention.
- audio is one of Single, Dual, Dubbed.`

func userPrompt(text string, titles []string, limit int) string {
	hints := titles[:min(len(titles), limit)]
	return fmt.Sprintf("Available: %s\nQuery: %q", strings.Join(hints, ", "), text)
}
