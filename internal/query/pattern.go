package query

import (
	"regexp"
	"strings"

	"animedb/internal/catalog"
	"animedb/internal/release"
)

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})\s*-?\s*E(\d{1,3})\b`)
	crossPattern         = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`)
	seasonPattern        = regexp.MustCompile(`(?i)\b(?:season\s*(\d{1,2})|S(\d{1,2}))\b`)
	episodePattern       = regexp.MustCompile(`(?i)\b(?:(?:episode|ep\.?)\s*(\d{1,3})|E(\d{1,3}))\b`)
	qualityPattern       = regexp.MustCompile(`(?i)\b(\d{3,4}p|[24]k|uhd|fhd)\b`)
	audioPattern         = regexp.MustCompile(`(?i)\b(dual|multi|dubbed|dub|subbed|sub|single)(?:\s+audio)?\b`)
	punctuationPattern   = regexp.MustCompile(`[^\p{L}\p{N}\s:'!?.&-]+`)
)

var fillerWords = map[string]struct{}{
	"find": {}, "show": {}, "search": {}, "get": {}, "give": {}, "me": {},
	"all": {}, "the": {}, "of": {}, "for": {}, "in": {}, "with": {},
	"episodes": {}, "anime": {}, "please": {}, "want": {}, "i": {},
	"quality": {}, "links": {}, "link": {}, "download": {},
}

// extraction holds what the pattern pass recognized plus leftover text.
type extraction struct {
	filter   catalog.Filter
	leftover string
}

// extract pulls season, episode, quality, and audio terms out of text.
func extract(text string) extraction {
	var f catalog.Filter
	rest := " " + text + " "

	if m := seasonEpisodePattern.FindStringSubmatchIndex(rest); m != nil {
		f.Season, f.Episode = release.NormalizeSeasonEpisode(rest[m[2]:m[3]], rest[m[4]:m[5]])
		rest = cut(rest, m[0], m[1])
	} else if m := crossPattern.FindStringSubmatchIndex(rest); m != nil {
		f.Season, f.Episode = release.NormalizeSeasonEpisode(rest[m[2]:m[3]], rest[m[4]:m[5]])
		rest = cut(rest, m[0], m[1])
	} else {
		if m := seasonPattern.FindStringSubmatchIndex(rest); m != nil {
			f.Season, _ = release.NormalizeSeasonToken(rest[m[0]:m[1]])
			rest = cut(rest, m[0], m[1])
		}
		if m := episodePattern.FindStringSubmatchIndex(rest); m != nil {
			f.Episode, _ = release.NormalizeEpisodeToken(rest[m[0]:m[1]])
			rest = cut(rest, m[0], m[1])
		}
	}
	if m := qualityPattern.FindStringSubmatchIndex(rest); m != nil {
		f.Quality = release.NormalizeQuality(rest[m[2]:m[3]])
		rest = cut(rest, m[0], m[1])
	}
	if m := audioPattern.FindStringSubmatchIndex(rest); m != nil {
		f.Audio = release.NormalizeAudio(rest[m[2]:m[3]])
		rest = cut(rest, m[0], m[1])
	}

	rest = punctuationPattern.ReplaceAllString(rest, " ")
	words := strings.Fields(rest)
	kept := words[:0]
	for _, w := range words {
		if _, filler := fillerWords[strings.ToLower(w)]; filler {
			continue
		}
		kept = append(kept, w)
	}
	return extraction{filter: f, leftover: strings.Join(kept, " ")}
}

func cut(s string, start, end int) string {
	return s[:start] + " " + s[end:]
}
