package query

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ResolveTitle maps free text to a title filter. It prefers a
// case-insensitive exact match, then the longest known title contained in the
// text. Text that is itself contained in a known title is returned unchanged
// so the substring filter keeps every title sharing it. Only then is the
// closest fuzzy match used; when nothing fits, the text itself is returned.
func ResolveTitle(text string, titles []string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)

	best := ""
	for _, title := range titles {
		if strings.EqualFold(title, text) {
			return title
		}
		if strings.Contains(lower, strings.ToLower(title)) && len(title) > len(best) {
			best = title
		}
	}
	if best != "" {
		return best
	}
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), lower) {
			return text
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(text, titles)
	if len(ranks) == 0 {
		return text
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
