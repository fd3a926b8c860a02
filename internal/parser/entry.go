package parser

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"animedb/internal/release"
)

// ErrMalformedEntry marks an entry that could not be turned into a candidate.
var ErrMalformedEntry = errors.New("malformed entry")

var (
	errNoLink          = fmt.Errorf("%w: no link", ErrMalformedEntry)
	errNoSeasonEpisode = fmt.Errorf("%w: no season/episode marker", ErrMalformedEntry)
	errShortTitle      = fmt.Errorf("%w: title too short", ErrMalformedEntry)
)

const minTitleRunes = 2

var bulkUploadShape = regexp.MustCompile(`(?is)\d+\.\s*\[?S\d+-?E\d+.*https?://`)

// ParseEntry extracts a candidate from a single logical entry. Missing quality
// and audio fall back to release defaults; a missing link, a missing
// season/episode marker, or a title shorter than two characters rejects the
// entry.
func ParseEntry(entry string) (release.Candidate, error) {
	var candidate release.Candidate
	working := leadingOrdinal.ReplaceAllString(entry, "")

	link, ok := firstMatch(working, linkMatchers)
	if !ok {
		return candidate, errNoLink
	}
	candidate.URL = link.Values[0]
	working = removeFirst(working, link.Text)

	se, ok := firstMatch(working, seasonEpisodeMatchers)
	if !ok {
		return candidate, errNoSeasonEpisode
	}
	candidate.Season, candidate.Episode = normalizeSeasonEpisode(se.Values)
	working = removeAll(working, seasonEpisodeMatchers)

	candidate.Quality = release.DefaultQuality
	if quality, ok := firstMatch(working, qualityMatchers); ok {
		candidate.Quality = release.NormalizeQuality(quality.Values[0])
		working = removeFirst(working, quality.Text)
	}

	candidate.Audio = release.DefaultAudio
	if audio, ok := firstMatch(working, audioMatchers); ok {
		candidate.Audio = release.NormalizeAudio(audio.Values[0])
		working = removeFirst(working, audio.Text)
	}

	candidate.Title = cleanTitle(working)
	if utf8.RuneCountInString(candidate.Title) < minTitleRunes {
		return candidate, errShortTitle
	}
	return candidate, nil
}

// EntryError records why one entry of a listing was rejected.
type EntryError struct {
	Index int
	Entry string
	Err   error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// ParseListing runs the pattern parser over every entry in text.
func ParseListing(text string) ([]release.Candidate, []EntryError) {
	var (
		records  []release.Candidate
		rejected []EntryError
	)
	index := 0
	for entry := range Segments(text) {
		index++
		candidate, err := ParseEntry(entry)
		if err != nil {
			rejected = append(rejected, EntryError{Index: index, Entry: entry, Err: err})
			continue
		}
		records = append(records, candidate)
	}
	return records, rejected
}

// LooksLikeBulkUpload reports whether text resembles a numbered release
// listing that carries season/episode tags and links.
func LooksLikeBulkUpload(text string) bool {
	return bulkUploadShape.MatchString(text)
}
