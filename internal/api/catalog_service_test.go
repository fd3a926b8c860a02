package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/access"
	"animedb/internal/assistant"
	"animedb/internal/catalog"
	"animedb/internal/notifications"
	"animedb/internal/query"
	"animedb/internal/release"
	"animedb/internal/services"
	"animedb/internal/sheet"
	"animedb/internal/testsupport"
)

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

func seededCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store := catalog.New(sheet.NewMemory())
	for _, c := range []release.Candidate{
		{Title: "Demo", Season: "S01", Episode: "E01", Quality: "480p", Audio: "Dual", URL: "https://x/480"},
		{Title: "Demo", Season: "S01", Episode: "E01", Quality: "720p", Audio: "Dual", URL: "https://x/720"},
		{Title: "Demo", Season: "S01", Episode: "E02", Quality: "480p", Audio: "Dual", URL: "https://x/480-2"},
		{Title: "Frieren", Season: "S01", Episode: "E01", Quality: "1080p", Audio: "Single", URL: "https://x/f1"},
	} {
		_, _, err := store.Add(context.Background(), c)
		require.NoError(t, err)
	}
	return store
}

func TestSearchExplicitFilter(t *testing.T) {
	svc := NewService(seededCatalog(t), nil)

	result, err := svc.Search(context.Background(), "u", "", Filter{Season: "S01", Quality: "480p"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", result.Source)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "1. https://x/480\n2. https://x/480-2\n", result.Text)
	assert.Equal(t, "Demo", result.Results[0].Title)
}

func TestSearchInterpretsText(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(seededCatalog(t), nil, WithNotifier(notifier))

	result, err := svc.Search(context.Background(), "u", "demo 720p", Filter{})
	require.NoError(t, err)
	assert.Equal(t, "pattern", result.Source)
	assert.Equal(t, Filter{Title: "Demo", Quality: "720p"}, result.Filter)
	assert.Equal(t, "1. https://x/720\n", result.Text)
	assert.Equal(t, []notifications.Event{notifications.EventSearch}, notifier.events)
}

func TestSearchUsesStructuredInterpreter(t *testing.T) {
	gen := &testsupport.StubLLM{JSON: `{"anime_name":"Frieren","season":null,"episode":"1","quality":null,"audio":null,"intent":"search"}`}
	svc := NewService(seededCatalog(t), query.NewInterpreter(gen))

	result, err := svc.Search(context.Background(), "u", "the elf one, first episode", Filter{})
	require.NoError(t, err)
	assert.Equal(t, "structured", result.Source)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "https://x/f1", result.Results[0].URL)
}

func TestSearchNoResultsAndEmptyCatalog(t *testing.T) {
	svc := NewService(seededCatalog(t), nil)
	result, err := svc.Search(context.Background(), "u", "naruto", Filter{})
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Equal(t, "No results found.", result.Text)
	assert.NotNil(t, result.Results)

	empty := NewService(catalog.New(sheet.NewMemory()), nil)
	result, err = empty.Search(context.Background(), "u", "naruto", Filter{})
	require.NoError(t, err)
	assert.Equal(t, "Catalog is empty.", result.Text)

	_, err = empty.Search(context.Background(), "u", " ", Filter{})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestSearchRejectsFillerOnlyText(t *testing.T) {
	svc := NewService(seededCatalog(t), nil)
	result, err := svc.Search(context.Background(), "u", "show me all", Filter{})
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Zero(t, result.Count)
	assert.Empty(t, result.Results)
}

func TestTitlesAndHealth(t *testing.T) {
	svc := NewService(seededCatalog(t), nil)

	titles, err := svc.Titles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Demo", "Frieren"}, titles.Titles)
	assert.Equal(t, "Catalog (2)\n\n• Demo\n• Frieren\n", titles.Text)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthResponse{OK: true, Records: 4, Series: 2}, health)
}

func TestChat(t *testing.T) {
	stub := &testsupport.StubLLM{Reply: "Watch Demo."}
	svc := NewService(seededCatalog(t), nil, WithAssistant(assistant.New(stub)))
	ctx := context.Background()

	hint, err := svc.Chat(ctx, "u", "1. [S01-E01] Demo [480p] https://x/a")
	require.NoError(t, err)
	assert.Equal(t, UploadHint, hint.UploadHint)
	assert.Zero(t, stub.Calls())

	reply, err := svc.Chat(ctx, "u", "recommend something")
	require.NoError(t, err)
	assert.Equal(t, "Watch Demo.", reply.Reply)
	require.Len(t, stub.Chats, 1)
	assert.Contains(t, stub.Chats[0][1].Content, "Database: Available anime (2): Demo, Frieren")

	health, err := svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, health.ChatSessions)

	assert.True(t, svc.ClearChat("u"))
	assert.False(t, svc.ClearChat("u"))

	health, err = svc.Health(ctx)
	require.NoError(t, err)
	assert.Zero(t, health.ChatSessions)
}

func TestChatFailures(t *testing.T) {
	disabled := NewService(seededCatalog(t), nil)
	_, err := disabled.Chat(context.Background(), "u", "hi")
	assert.ErrorIs(t, err, services.ErrConfiguration)

	failing := NewService(seededCatalog(t), nil, WithAssistant(assistant.New(&testsupport.StubLLM{ChatErr: errors.New("down")}, assistant.WithTimeout(time.Second))))
	_, err = failing.Chat(context.Background(), "u", "hi")
	assert.ErrorIs(t, err, services.ErrExternalTool)
}

func TestAuthorize(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(seededCatalog(t), nil, WithAccess(access.NewList("admin")), WithNotifier(notifier))

	resp, err := svc.Authorize(context.Background(), "admin", " 9 ")
	require.NoError(t, err)
	assert.Equal(t, AuthorizeResponse{UserID: "9", Added: true}, resp)
	assert.Equal(t, []string{"admin", "9"}, svc.Uploaders().Uploaders)

	resp, err = svc.Authorize(context.Background(), "admin", "9")
	require.NoError(t, err)
	assert.False(t, resp.Added)
	assert.Len(t, notifier.events, 1)

	_, err = svc.Authorize(context.Background(), "nobody", "10")
	assert.ErrorIs(t, err, access.ErrUnauthorized)

	assert.Equal(t, []string{}, NewService(seededCatalog(t), nil).Uploaders().Uploaders)
}

func TestFromRecord(t *testing.T) {
	added := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	dto := FromRecord(release.Record{SeriesID: "AN001", Title: "Demo", AddedAt: added, Status: "Active"})
	assert.Equal(t, "2024-05-01T10:30:00.000Z", dto.AddedAt)
	assert.Empty(t, FromRecord(release.Record{}).AddedAt)
	assert.NotNil(t, FromRecords(nil))
}
