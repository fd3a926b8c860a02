package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/release"
	"animedb/internal/services"
	"animedb/internal/sheet"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store := New(sheet.NewMemory(sheet.Row{SeriesID: "", Title: "Ghost", URL: "https://x/ghost"}))
	for _, c := range []release.Candidate{
		{Title: "Demo", Season: "S01", Episode: "E01", Quality: "720p", Audio: "Single", URL: "https://x/1"},
		{Title: "Demo", Season: "S01", Episode: "E02", Quality: "1080p", Audio: "Dual", URL: "https://x/2"},
		{Title: "Demo", Season: "S02", Episode: "E01", Quality: "720p", Audio: "Dubbed", URL: "https://x/3"},
		{Title: "Frieren", Season: "S01", Episode: "E01", Quality: "1080p", Audio: "Single", URL: "https://x/4"},
		{Title: "apple", Season: "S02", Episode: "E01", Quality: "480p", Audio: "Single", URL: "https://x/5"},
		{Title: "Demo", Season: "S01", Episode: "E01", Quality: "480p", Audio: "Single", URL: "https://x/6"},
	} {
		_, _, err := store.Add(ctx, c)
		require.NoError(t, err)
	}
	return store
}

func TestQueryFilters(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"https://x/1", "https://x/2", "https://x/3", "https://x/4", "https://x/5", "https://x/6"}},
		{"title substring", Filter{Title: "dem"}, []string{"https://x/1", "https://x/2", "https://x/3", "https://x/6"}},
		{"season exact", Filter{Title: "Demo", Season: "s01"}, []string{"https://x/1", "https://x/2", "https://x/6"}},
		{"season and quality pick one resolution", Filter{Season: "S01", Quality: "480p"}, []string{"https://x/6"}},
		{"season not prefix", Filter{Season: "S0"}, nil},
		{"episode exact", Filter{Episode: "E01"}, []string{"https://x/1", "https://x/3", "https://x/4", "https://x/5", "https://x/6"}},
		{"quality substring", Filter{Quality: "1080"}, []string{"https://x/2", "https://x/4"}},
		{"audio", Filter{Audio: "dub"}, []string{"https://x/3"}},
		{"no match", Filter{Title: "Naruto"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := store.Query(ctx, tc.filter)
			require.NoError(t, err)
			var urls []string
			for _, r := range records {
				urls = append(urls, r.URL)
			}
			assert.Equal(t, tc.want, urls)
		})
	}
}

func TestQuerySkipsRowsWithoutID(t *testing.T) {
	store := seededStore(t)
	records, err := store.Query(context.Background(), Filter{Title: "ghost"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDistinctTitlesAndSummary(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	titles, err := store.DistinctTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo", "Frieren", "apple"}, titles)

	summary, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Available anime (3): Demo, Frieren, apple", summary)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 6, Series: 3}, stats)
}

func TestSummaryCapsTitles(t *testing.T) {
	var rows []sheet.Row
	for _, title := range []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "B1", "B2", "B3"} {
		rows = append(rows, sheet.Row{SeriesID: "AN001", Title: title, URL: "https://x/" + title})
	}
	summary, err := New(sheet.NewMemory(rows...)).Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Available anime (12): A1, A2, A3, A4, A5, A6, A7, A8, A9, B1", summary)
}

func TestEmptyCatalog(t *testing.T) {
	store := New(sheet.NewMemory())
	ctx := context.Background()

	titles, err := store.DistinctTitles(ctx)
	require.NoError(t, err)
	assert.Empty(t, titles)

	summary, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Available anime (0): ", summary)
}

func TestQueryStorageFailure(t *testing.T) {
	store := New(&failingTable{readErr: errors.New("locked")})
	_, err := store.Query(context.Background(), Filter{})
	assert.ErrorIs(t, err, services.ErrExternalTool)
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, "all", Filter{}.String())
	assert.Equal(t, `title="Demo" episode="E02"`, Filter{Title: "Demo", Episode: "E02"}.String())
	assert.True(t, Filter{}.IsZero())
}
