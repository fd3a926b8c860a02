package notifications_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"animedb/internal/config"
	"animedb/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventUploadCompleted, notifications.Payload{"user": "1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	manyURLs := make([]string, 22)
	for i := range manyURLs {
		manyURLs[i] = fmt.Sprintf("https://x/%d", i+1)
	}

	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "upload completed",
			event: notifications.EventUploadCompleted,
			payload: notifications.Payload{
				"user":    "alice",
				"added":   2,
				"skipped": 1,
				"total":   3,
				"urls":    []string{"https://x/a", "https://x/b"},
			},
			expectTitle:   "animedb - Upload",
			expectMessage: "📦 Upload by alice\nAdded: 2\nSkipped: 1\nTotal: 3\nURLs:\n1. https://x/a\n2. https://x/b",
			expectTags:    "animedb,upload,completed",
		},
		{
			name:  "upload rejected",
			event: notifications.EventUploadRejected,
			payload: notifications.Payload{
				"user": "mallory",
			},
			expectTitle:    "animedb - Unauthorized Upload",
			expectMessage:  "⛔ Upload rejected for user mallory",
			expectTags:     "animedb,upload,unauthorized",
			expectPriority: "high",
		},
		{
			name:  "parse failed",
			event: notifications.EventParseFailed,
			payload: notifications.Payload{
				"user":  "bob",
				"error": errors.New("no valid entries found"),
			},
			expectTitle:   "animedb - Upload Failed",
			expectMessage: "⚠️ Nothing could be parsed from bob's listing: no valid entries found",
			expectTags:    "animedb,upload,failed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "upload",
				"error":   "catalog unavailable",
			},
			expectTitle:    "animedb - Error",
			expectMessage:  "❌ Error with upload: catalog unavailable",
			expectTags:     "animedb,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "animedb - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "animedb,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			captured := captureServer(t)
			svc := notifications.NewService(newConfig(captured.url))
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}

	t.Run("url list truncated", func(t *testing.T) {
		captured := captureServer(t)
		svc := notifications.NewService(newConfig(captured.url))
		payload := notifications.Payload{"user": "alice", "added": 22, "total": 22, "urls": manyURLs}
		if err := svc.Publish(context.Background(), notifications.EventUploadCompleted, payload); err != nil {
			t.Fatalf("notification returned error: %v", err)
		}
		if !strings.Contains(captured.body, "20. https://x/20\n... and 2 more") {
			t.Fatalf("expected truncated url list, got %q", captured.body)
		}
		if strings.Contains(captured.body, "https://x/21") {
			t.Fatalf("url beyond limit leaked: %q", captured.body)
		}
	})
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := newConfig(server.URL)
	cfg.Notifications.Uploads = false
	cfg.Notifications.Errors = false
	cfg.Notifications.Activity = false

	svc := notifications.NewService(cfg)
	suppressed := []notifications.Event{
		notifications.EventUploadCompleted,
		notifications.EventParseFailed,
		notifications.EventError,
		notifications.EventSearch,
		notifications.EventChat,
		notifications.Event("unknown"),
	}
	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceActivityEvents(t *testing.T) {
	captured := captureServer(t)
	cfg := newConfig(captured.url)
	cfg.Notifications.Activity = true
	svc := notifications.NewService(cfg)

	if err := svc.Publish(context.Background(), notifications.EventSearch, notifications.Payload{"user": "7", "query": "demo", "found": 3}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if captured.body != `🔍 7 searched "demo": 3 found` {
		t.Fatalf("unexpected search body %q", captured.body)
	}

	long := strings.Repeat("a", 80)
	if err := svc.Publish(context.Background(), notifications.EventChat, notifications.Payload{"user": "7", "message": long}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if want := "💬 7: " + strings.Repeat("a", 50) + "…"; captured.body != want {
		t.Fatalf("unexpected chat body %q", captured.body)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic muted", http.StatusForbidden)
	}))
	defer server.Close()

	svc := notifications.NewService(newConfig(server.URL))
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403: topic muted") {
		t.Fatalf("expected http failure, got %v", err)
	}
}

type capture struct {
	url      string
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T) *capture {
	t.Helper()
	captured := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	captured.url = server.URL
	return captured
}

func newConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeout = 5
	return &cfg
}
