package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/access"
	"animedb/internal/catalog"
	"animedb/internal/metrics"
	"animedb/internal/notifications"
	"animedb/internal/parser"
	"animedb/internal/release"
	"animedb/internal/services"
	"animedb/internal/sheet"
)

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

type staticParser struct {
	outcome parser.Outcome
}

func (p staticParser) Parse(context.Context, string) parser.Outcome { return p.outcome }

type brokenCatalog struct {
	calls int
	err   error
}

func (b *brokenCatalog) Add(context.Context, release.Candidate) (release.Record, catalog.Outcome, error) {
	b.calls++
	return release.Record{}, "", b.err
}

const listing = `1. [S01-E01] Demo [480p] [Dual] https://x/a.mkv
2. Demo 1x02 https://x/b
3. [S01-E03] Demo [1080p] https://x/c
4. no link here
5. [S01-E01] Frieren [1080p] https://x/f`

func newService(t *testing.T, opts ...Option) (*Service, *sheet.MemoryTable) {
	t.Helper()
	table := sheet.NewMemory()
	store := catalog.New(table)
	return NewService(store, parser.NewBulkParser(nil), opts...), table
}

func TestUploadReport(t *testing.T) {
	notifier := &recordingNotifier{}
	m := metrics.NewManager(nil)
	svc, table := newService(t, WithNotifier(notifier), WithMetrics(m))
	ctx := context.Background()

	report, err := svc.Upload(ctx, "42", listing)
	require.NoError(t, err)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, parser.ProvenanceFallback, report.Provenance)
	assert.Equal(t, 4, report.Added)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Series)
	assert.Equal(t, map[string]int{"480p": 1, "720p": 1, "1080p": 2}, report.Qualities)
	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "entry 4")

	rows, err := table.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	again, err := svc.Upload(ctx, "42", listing)
	require.NoError(t, err)
	assert.Zero(t, again.Added)
	assert.Equal(t, 4, again.Skipped)
	assert.Zero(t, again.Series)

	require.Equal(t, []notifications.Event{notifications.EventUploadCompleted, notifications.EventUploadCompleted}, notifier.events)
	assert.Equal(t, []string{"https://x/a.mkv", "https://x/b", "https://x/c", "https://x/f"}, notifier.payloads[0]["urls"])
	expected := `
# HELP animedb_ingest_records_total Parsed records offered to the catalog by outcome.
# TYPE animedb_ingest_records_total counter
animedb_ingest_records_total{outcome="added"} 4
animedb_ingest_records_total{outcome="exact_duplicate"} 4
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "animedb_ingest_records_total"))
}

func TestUploadUnauthorized(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, table := newService(t, WithAuthorizer(access.NewList("1")), WithNotifier(notifier))

	_, err := svc.Upload(context.Background(), "2", listing)
	require.ErrorIs(t, err, access.ErrUnauthorized)
	assert.Equal(t, []notifications.Event{notifications.EventUploadRejected}, notifier.events)

	rows, _ := table.ReadAll(context.Background())
	assert.Empty(t, rows)

	_, err = svc.Upload(context.Background(), "1", listing)
	require.NoError(t, err)
}

func TestUploadNothingParsed(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newService(t, WithNotifier(notifier))

	report, err := svc.Upload(context.Background(), "1", "hello there\nno links at all")
	require.ErrorIs(t, err, ErrNothingParsed)
	assert.ErrorIs(t, err, parser.ErrNothingParsed)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, parser.ProvenanceFailed, report.Provenance)
	assert.Zero(t, report.Total)
	assert.Equal(t, []notifications.Event{notifications.EventParseFailed}, notifier.events)
}

func TestUploadBoundsErrors(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, "%d. broken entry without link\n", i)
	}
	b.WriteString("9. Demo 1x02 https://x/b\n")
	text := b.String()

	svc, _ := newService(t, WithMaxErrors(3))
	report, err := svc.Upload(context.Background(), "1", text)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 8, report.ErrorCount)
	assert.Len(t, report.Errors, 3)
	assert.Contains(t, report.Text(), "...and 5 more")
}

func TestUploadInvalidStructuredRecordReported(t *testing.T) {
	invalid := release.Candidate{Title: "Demo", Season: "S01", Episode: "E01", Quality: "720p", Audio: "Single", URL: "not-a-url"}
	valid := release.Candidate{Title: "Demo", Season: "S01", Episode: "E02", Quality: "720p", Audio: "Single", URL: "https://x/2"}
	store := catalog.New(sheet.NewMemory())
	svc := NewService(store, staticParser{outcome: parser.Outcome{
		Provenance: parser.ProvenanceStructured,
		Records:    []release.Candidate{invalid, valid},
	}})

	report, err := svc.Upload(context.Background(), "1", "ignored")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Demo S01E01: "), report.Errors[0])
}

func TestUploadStorageFailureAborts(t *testing.T) {
	notifier := &recordingNotifier{}
	boom := services.Wrap(services.ErrExternalTool, "catalog", "append", "write row", errors.New("disk full"))
	broken := &brokenCatalog{err: boom}
	svc := NewService(broken, parser.NewBulkParser(nil), WithNotifier(notifier))

	report, err := svc.Upload(context.Background(), "1", listing)
	require.ErrorIs(t, err, services.ErrExternalTool)
	assert.Equal(t, 1, broken.calls)
	assert.Zero(t, report.Added)
	assert.Equal(t, []notifications.Event{notifications.EventError}, notifier.events)
}

func TestReportText(t *testing.T) {
	report := Report{
		User:      "alice",
		Added:     3,
		Skipped:   1,
		Total:     4,
		Series:    1,
		Qualities: map[string]int{"720p": 2, "1080p": 1},
	}
	want := "Upload complete\n\n" +
		"Uploader: alice\n" +
		"Added: 3 episodes\n" +
		"Skipped: 1 (duplicates)\n" +
		"Total: 4\n" +
		"Series: 1\n" +
		"\nQuality breakdown:\n" +
		" • 1080p: 1 eps\n" +
		" • 720p: 2 eps\n"
	assert.Equal(t, want, report.Text())
}
