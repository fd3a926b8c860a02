package parser

import (
	"net/url"
	"regexp"
	"strings"

	"animedb/internal/release"
)

// fieldMatch is the result of a successful matcher attempt.
type fieldMatch struct {
	Strategy string
	Text     string
	Values   []string
}

// fieldMatcher is one entry in an ordered fallback chain.
type fieldMatcher struct {
	Name    string
	Pattern *regexp.Regexp
	Accept  func(groups []string) bool
	Values  func(groups []string) []string
}

func (m fieldMatcher) match(text string) (fieldMatch, bool) {
	for _, groups := range m.Pattern.FindAllStringSubmatch(text, -1) {
		if m.Accept != nil && !m.Accept(groups) {
			continue
		}
		values := groups[1:]
		if m.Values != nil {
			values = m.Values(groups)
		}
		return fieldMatch{Strategy: m.Name, Text: groups[0], Values: values}, true
	}
	return fieldMatch{}, false
}

// firstMatch tries matchers in priority order and returns the first success.
func firstMatch(text string, matchers []fieldMatcher) (fieldMatch, bool) {
	for _, m := range matchers {
		if found, ok := m.match(text); ok {
			return found, true
		}
	}
	return fieldMatch{}, false
}

var linkMatchers = []fieldMatcher{
	{
		Name:    "http_link",
		Pattern: regexp.MustCompile(`https?://[^\s]+`),
		Accept: func(groups []string) bool {
			parsed, err := url.Parse(cleanLink(groups[0]))
			return err == nil && parsed.Host != ""
		},
		Values: func(groups []string) []string {
			return []string{cleanLink(groups[0])}
		},
	},
}

func cleanLink(raw string) string {
	return strings.Trim(raw, "`)")
}

var seasonEpisodeMatchers = []fieldMatcher{
	{
		Name:    "season_episode_tag",
		Pattern: regexp.MustCompile(`(?i)\[?S(\d{1,2})-?E(\d{1,2})\]?`),
	},
	{
		Name:    "cross_notation",
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,2})\b`),
	},
	{
		Name:    "episode_word",
		Pattern: regexp.MustCompile(`(?i)\b(?:Episode|Ep\.?)\s*(\d{1,2})`),
		Values: func(groups []string) []string {
			return []string{"1", groups[1]}
		},
	},
}

var knownResolutions = map[string]struct{}{
	"360": {}, "480": {}, "540": {}, "576": {}, "720": {}, "1080": {}, "1440": {}, "2160": {}, "4320": {},
}

var qualityMatchers = []fieldMatcher{
	{
		Name:    "resolution_suffix",
		Pattern: regexp.MustCompile(`(?i)\[?\b(\d{3,4}p|[24]k)\b\]?`),
	},
	{
		Name:    "bracketed_number",
		Pattern: regexp.MustCompile(`\[(\d{3,4})\]`),
	},
	{
		Name:    "bare_resolution",
		Pattern: regexp.MustCompile(`\b(\d{3,4})\b`),
		Accept: func(groups []string) bool {
			_, ok := knownResolutions[groups[1]]
			return ok
		},
	},
}

var audioMatchers = []fieldMatcher{
	{
		Name:    "audio_term",
		Pattern: regexp.MustCompile(`(?i)\[?\b(Dual|Single|Subbed|Dubbed|Sub|Dub|Multi)\b\]?`),
	},
}

var (
	leadingOrdinal  = regexp.MustCompile(`^\s*\d+\.\s*`)
	extensionSuffix = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|webm)\b.*$`)
	socialHandle    = regexp.MustCompile(`@\w+`)
	bracketed       = regexp.MustCompile(`\[[^\]]*\]`)
	parenthesized   = regexp.MustCompile(`\([^)]*\)`)
	strayBrackets   = regexp.MustCompile(`[\[\]()]`)
	trailingDash    = regexp.MustCompile(`\s*-+\s*$`)
	languageTag     = regexp.MustCompile(`(?i)\s+(Tam|Tamil|Eng|English|Hin|Hindi|Jap|Japanese)\s*$`)
)

// cleanTitle strips extensions, handles, bracketed fragments, trailing
// dashes, and trailing language tags from the leftover text. The list
// ordinal is removed once by ParseEntry; a title may itself start with
// "<digits>.".
func cleanTitle(text string) string {
	title := extensionSuffix.ReplaceAllString(strings.TrimSpace(text), "")
	title = socialHandle.ReplaceAllString(title, " ")
	title = bracketed.ReplaceAllString(title, " ")
	title = parenthesized.ReplaceAllString(title, " ")
	title = strayBrackets.ReplaceAllString(title, " ")
	title = strings.Join(strings.Fields(title), " ")
	for {
		next := trailingDash.ReplaceAllString(title, "")
		next = languageTag.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == title {
			return title
		}
		title = next
	}
}

// removeFirst deletes the first occurrence of fragment from text.
func removeFirst(text, fragment string) string {
	if fragment == "" {
		return text
	}
	return strings.Replace(text, fragment, " ", 1)
}

// removeAll deletes every match of every matcher in the chain.
func removeAll(text string, matchers []fieldMatcher) string {
	for _, m := range matchers {
		text = m.Pattern.ReplaceAllString(text, " ")
	}
	return text
}

func normalizeSeasonEpisode(values []string) (string, string) {
	return release.NormalizeSeasonEpisode(values[0], values[1])
}
