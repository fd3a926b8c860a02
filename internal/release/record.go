package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Audio track labels.
const (
	AudioSingle = "Single"
	AudioDual   = "Dual"
	AudioDubbed = "Dubbed"
)

// Quality labels. The vocabulary is open-ended for numeric resolutions.
const (
	Quality480p  = "480p"
	Quality720p  = "720p"
	Quality1080p = "1080p"
	Quality2160p = "2160p"
	Quality4K    = "4K"
	Quality2K    = "2K"
)

const (
	// DefaultQuality applies when a listing carries no resolution tag.
	DefaultQuality = Quality720p
	// DefaultAudio applies when a listing carries no audio tag.
	DefaultAudio = AudioSingle
	// DefaultStatus is stamped on every newly stored record.
	DefaultStatus = "Active"
	// SeriesIDPrefix prefixes every series identifier.
	SeriesIDPrefix = "AN"
	// AddedAtLayout is the timestamp layout used by tabular backings.
	AddedAtLayout = "2006-01-02 15:04"
)

// Candidate is a parsed listing that has not been stored yet.
type Candidate struct {
	Title   string `json:"anime_name" validate:"required,min=2"`
	Season  string `json:"season" validate:"required,season"`
	Episode string `json:"episode" validate:"required,episode"`
	Quality string `json:"quality" validate:"required"`
	Audio   string `json:"audio" validate:"required,oneof=Single Dual Dubbed"`
	URL     string `json:"url" validate:"required,url"`
}

// Record is a stored release row.
type Record struct {
	SeriesID string    `json:"anime_id"`
	Title    string    `json:"anime_name"`
	Season   string    `json:"season"`
	Episode  string    `json:"episode"`
	Quality  string    `json:"quality"`
	Audio    string    `json:"audio"`
	URL      string    `json:"url"`
	AddedAt  time.Time `json:"added_at"`
	Status   string    `json:"status"`
}

// Candidate returns the parsed fields of the record.
func (r Record) Candidate() Candidate {
	return Candidate{
		Title:   r.Title,
		Season:  r.Season,
		Episode: r.Episode,
		Quality: r.Quality,
		Audio:   r.Audio,
		URL:     r.URL,
	}
}

// Label renders a short human-readable identifier such as "Demo S01E02".
func (c Candidate) Label() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s%s", c.Title, c.Season, c.Episode))
}

var digitsPattern = regexp.MustCompile(`\d+`)

// EpisodeNumber extracts the first run of digits from an episode token.
func EpisodeNumber(episode string) (int, bool) {
	match := digitsPattern.FindString(episode)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

var seriesIDPattern = regexp.MustCompile(`AN(\d+)`)

// FormatSeriesID renders the ordinal as AN plus at least three digits.
func FormatSeriesID(ordinal int) string {
	return fmt.Sprintf("%s%03d", SeriesIDPrefix, ordinal)
}

// ParseSeriesID extracts the ordinal from an AN-prefixed identifier.
func ParseSeriesID(id string) (int, bool) {
	match := seriesIDPattern.FindStringSubmatch(id)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
