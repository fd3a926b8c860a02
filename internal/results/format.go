// Package results renders catalog lookups as text.
package results

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"animedb/internal/logging"
	"animedb/internal/release"
)

// NoResults is returned by Format for an empty result set.
const NoResults = "No results found."

type groupKey struct {
	title, season, quality string
}

func compareKeys(a, b groupKey) int {
	return cmp.Or(
		cmp.Compare(a.title, b.title),
		cmp.Compare(a.season, b.season),
		cmp.Compare(a.quality, b.quality),
	)
}

type numbered struct {
	episode int
	record  release.Record
}

// Format groups records by title, season, and quality, orders groups by that
// key and records by episode number, and renders one "N. url" line per record.
// Records whose episode carries no number are skipped and logged.
func Format(records []release.Record, logger *slog.Logger) string {
	if len(records) == 0 {
		return NoResults
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	groups := make(map[groupKey][]numbered)
	for _, r := range records {
		n, ok := release.EpisodeNumber(r.Episode)
		if !ok {
			logging.WarnWithContext(logger, "result skipped: episode has no number", "format_anomaly",
				logging.String(logging.FieldSeriesID, r.SeriesID),
				logging.String("episode", r.Episode),
				logging.String("url", r.URL),
				logging.String(logging.FieldErrorHint, "fix the stored episode token"),
				logging.String(logging.FieldImpact, "row omitted from listing"),
			)
			continue
		}
		key := groupKey{r.Title, r.Season, r.Quality}
		groups[key] = append(groups[key], numbered{episode: n, record: r})
	}
	if len(groups) == 0 {
		return NoResults
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)

	var b strings.Builder
	counter := 1
	for _, key := range keys {
		entries := groups[key]
		slices.SortStableFunc(entries, func(a, b numbered) int {
			return cmp.Compare(a.episode, b.episode)
		})
		for _, entry := range entries {
			fmt.Fprintf(&b, "%d. %s\n", counter, entry.record.URL)
			counter++
		}
	}
	return b.String()
}

// BrowseLimit caps the number of titles rendered by Browse.
const BrowseLimit = 20

// Browse renders a bulleted title list capped at limit entries.
func Browse(titles []string, limit int) string {
	if len(titles) == 0 {
		return "Catalog is empty."
	}
	if limit <= 0 {
		limit = BrowseLimit
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog (%d)\n\n", len(titles))
	for _, title := range titles[:min(limit, len(titles))] {
		fmt.Fprintf(&b, "• %s\n", title)
	}
	if len(titles) > limit {
		fmt.Fprintf(&b, "\n...%d more\n", len(titles)-limit)
	}
	return b.String()
}
