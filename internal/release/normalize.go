package release

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	resolutionPattern = regexp.MustCompile(`^(\d{3,4})p?$`)
	tokenTrim         = "[](){} \t"
)

var qualityAliases = map[string]string{
	"4k":     Quality4K,
	"2k":     Quality2K,
	"uhd":    Quality2160p,
	"fhd":    Quality1080p,
	"fullhd": Quality1080p,
	"hd":     Quality720p,
	"sd":     Quality480p,
}

// NormalizeQuality maps a raw resolution label to its canonical token.
// Numeric labels gain a lowercase "p"; 4K and 2K stay uppercase without one.
// Unknown or empty input yields DefaultQuality.
func NormalizeQuality(raw string) string {
	value := strings.ToLower(strings.Trim(raw, tokenTrim))
	if value == "" {
		return DefaultQuality
	}
	if alias, ok := qualityAliases[value]; ok {
		return alias
	}
	if match := resolutionPattern.FindStringSubmatch(value); match != nil {
		return match[1] + "p"
	}
	return DefaultQuality
}

var audioTerms = map[string]string{
	"sub":    AudioSingle,
	"subbed": AudioSingle,
	"single": AudioSingle,
	"dub":    AudioDubbed,
	"dubbed": AudioDubbed,
	"multi":  AudioDual,
	"dual":   AudioDual,
}

// NormalizeAudio maps an audio-track term to Single, Dual, or Dubbed.
// Unrecognized or empty input yields DefaultAudio.
func NormalizeAudio(raw string) string {
	value := strings.ToLower(strings.Trim(raw, tokenTrim))
	if mapped, ok := audioTerms[value]; ok {
		return mapped
	}
	return DefaultAudio
}

// NormalizeSeasonEpisode zero-pads both numbers to at least two digits and
// prefixes them with S and E. Non-numeric input is treated as 1.
func NormalizeSeasonEpisode(seasonDigits, episodeDigits string) (string, string) {
	return "S" + padNumber(seasonDigits), "E" + padNumber(episodeDigits)
}

// NormalizeSeasonToken accepts "S1", "s01", "1", or "Season 1" and returns
// the canonical "S01" form. It reports false when no number is present.
func NormalizeSeasonToken(raw string) (string, bool) {
	return normalizeToken("S", raw)
}

// NormalizeEpisodeToken accepts "E5", "e05", "5", or "Episode 5" and returns
// the canonical "E05" form. It reports false when no number is present.
func NormalizeEpisodeToken(raw string) (string, bool) {
	return normalizeToken("E", raw)
}

func normalizeToken(prefix, raw string) (string, bool) {
	match := digitsPattern.FindString(raw)
	if match == "" {
		return "", false
	}
	return prefix + padNumber(match), true
}

func padNumber(digits string) string {
	n, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil || n < 0 {
		n = 1
	}
	s := strconv.Itoa(n)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}
