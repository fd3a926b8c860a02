package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCounters(t *testing.T) {
	m := NewManager(nil)

	m.ObserveParse("structured", 0)
	m.ObserveParse("fallback", 2)
	m.ObserveRecord("added")
	m.ObserveRecord("added")
	m.ObserveRecord("exact_duplicate")
	m.ObserveQuery("pattern")
	m.ObserveRequest("/api/search", "200")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.records.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("exact_duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("pattern")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/search", "200")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	foundGo := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "go_") {
			foundGo = true
		}
	}
	assert.True(t, foundGo, "Go runtime metrics should be registered")
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.ObserveParse("failed", 1)
		m.ObserveRecord("added")
		m.ObserveQuery("structured")
		m.ObserveRequest("/", "500")
	})
	assert.Nil(t, m.Registry())
}

func TestCatalogCollector(t *testing.T) {
	collector := NewCatalogCollector(func(context.Context) (int, int, error) { return 12, 3, nil })
	expected := `
# HELP animedb_catalog_records Number of stored release rows
# TYPE animedb_catalog_records gauge
animedb_catalog_records 12
# HELP animedb_catalog_series Number of distinct series IDs
# TYPE animedb_catalog_series gauge
animedb_catalog_series 3
# HELP animedb_catalog_up Whether the catalog could be read during the scrape
# TYPE animedb_catalog_up gauge
animedb_catalog_up 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))

	failing := NewCatalogCollector(func(context.Context) (int, int, error) { return 0, 0, errors.New("locked") })
	require.NoError(t, testutil.CollectAndCompare(failing, strings.NewReader(`
# HELP animedb_catalog_up Whether the catalog could be read during the scrape
# TYPE animedb_catalog_up gauge
animedb_catalog_up 0
`)))
}
