package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"animedb/internal/release"
)

// Filter selects records. Empty fields match everything.
type Filter struct {
	Title   string `json:"anime_name,omitempty"`
	Season  string `json:"season,omitempty"`
	Episode string `json:"episode,omitempty"`
	Quality string `json:"quality,omitempty"`
	Audio   string `json:"audio,omitempty"`
}

// IsZero reports whether no field is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches applies every set field: title, quality, and audio by
// case-insensitive containment; season and episode by case-insensitive
// equality.
func (f Filter) Matches(r release.Record) bool {
	if f.Title != "" && !containsFold(r.Title, f.Title) {
		return false
	}
	if f.Season != "" && !strings.EqualFold(r.Season, f.Season) {
		return false
	}
	if f.Episode != "" && !strings.EqualFold(r.Episode, f.Episode) {
		return false
	}
	if f.Quality != "" && !containsFold(r.Quality, f.Quality) {
		return false
	}
	if f.Audio != "" && !containsFold(r.Audio, f.Audio) {
		return false
	}
	return true
}

func (f Filter) String() string {
	var parts []string
	for _, field := range []struct{ name, value string }{
		{"title", f.Title}, {"season", f.Season}, {"episode", f.Episode},
		{"quality", f.Quality}, {"audio", f.Audio},
	} {
		if field.value != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", field.name, field.value))
		}
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " ")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Query returns every record matching f in storage order.
func (s *Store) Query(ctx context.Context, f Filter) ([]release.Record, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matched := records[:0]
	for _, r := range records {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// DistinctTitles returns every unique non-empty title, sorted.
func (s *Store) DistinctTitles(ctx context.Context) ([]string, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(records))
	titles := make([]string, 0, len(records))
	for _, r := range records {
		if r.Title == "" {
			continue
		}
		if _, ok := seen[r.Title]; ok {
			continue
		}
		seen[r.Title] = struct{}{}
		titles = append(titles, r.Title)
	}
	slices.Sort(titles)
	return titles, nil
}

const summaryTitleLimit = 10

// Summary renders a one-line overview used as assistant context.
func (s *Store) Summary(ctx context.Context) (string, error) {
	titles, err := s.DistinctTitles(ctx)
	if err != nil {
		return "", err
	}
	shown := titles[:min(len(titles), summaryTitleLimit)]
	return fmt.Sprintf("Available anime (%d): %s", len(titles), strings.Join(shown, ", ")), nil
}

// Stats summarizes catalog size.
type Stats struct {
	Records int `json:"records"`
	Series  int `json:"series"`
}

// Stats counts records and distinct series IDs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return Stats{}, err
	}
	series := make(map[string]struct{})
	for _, r := range records {
		series[r.SeriesID] = struct{}{}
	}
	return Stats{Records: len(records), Series: len(series)}, nil
}
