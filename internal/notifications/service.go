package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"animedb/internal/config"
)

const (
	userAgent       = "animedb/0.1.0"
	defaultURLLimit = 20
	chatPreviewLen  = 50
)

// Event identifies a notification kind.
type Event string

const (
	EventUploadCompleted    Event = "upload_completed"
	EventUploadRejected     Event = "upload_rejected"
	EventParseFailed        Event = "parse_failed"
	EventSearch             Event = "search"
	EventChat               Event = "chat"
	EventUploaderAuthorized Event = "uploader_authorized"
	EventError              Event = "error"
	EventTest               Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service defines the notification surface.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	urlLimit := cfg.Ingest.LogURLLimit
	if urlLimit <= 0 {
		urlLimit = defaultURLLimit
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		urlLimit: urlLimit,
		uploads:  cfg.Notifications.Uploads,
		errors:   cfg.Notifications.Errors,
		activity: cfg.Notifications.Activity,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	urlLimit int

	uploads  bool
	errors   bool
	activity bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled(event) {
		return nil
	}
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventUploadCompleted, EventUploadRejected, EventParseFailed:
		return n.uploads
	case EventError:
		return n.errors
	case EventSearch, EventChat, EventUploaderAuthorized:
		return n.activity
	case EventTest:
		return true
	default:
		return false
	}
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	user := payload.str("user")
	switch event {
	case EventUploadCompleted:
		var b strings.Builder
		fmt.Fprintf(&b, "📦 Upload by %s\n", user)
		fmt.Fprintf(&b, "Added: %d\nSkipped: %d\nTotal: %d", payload.num("added"), payload.num("skipped"), payload.num("total"))
		if urls := payload.strs("urls"); len(urls) > 0 {
			b.WriteString("\nURLs:\n")
			b.WriteString(urlList(urls, n.urlLimit))
		}
		return message{
			title: "animedb - Upload",
			body:  b.String(),
			tags:  []string{"animedb", "upload", "completed"},
		}, true
	case EventUploadRejected:
		return message{
			title:    "animedb - Unauthorized Upload",
			body:     fmt.Sprintf("⛔ Upload rejected for user %s", user),
			tags:     []string{"animedb", "upload", "unauthorized"},
			priority: "high",
		}, true
	case EventParseFailed:
		return message{
			title: "animedb - Upload Failed",
			body:  fmt.Sprintf("⚠️ Nothing could be parsed from %s's listing: %s", user, payload.str("error")),
			tags:  []string{"animedb", "upload", "failed"},
		}, true
	case EventSearch:
		return message{
			title: "animedb - Search",
			body:  fmt.Sprintf("🔍 %s searched %q: %d found", user, payload.str("query"), payload.num("found")),
			tags:  []string{"animedb", "search"},
		}, true
	case EventChat:
		return message{
			title: "animedb - Chat",
			body:  fmt.Sprintf("💬 %s: %s", user, truncate(payload.str("message"), chatPreviewLen)),
			tags:  []string{"animedb", "chat"},
		}, true
	case EventUploaderAuthorized:
		return message{
			title: "animedb - Uploader Added",
			body:  fmt.Sprintf("✅ %s authorized %s", payload.str("admin"), user),
			tags:  []string{"animedb", "access"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payload.str("context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if errText := payload.str("error"); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "animedb - Error",
			body:     b.String(),
			tags:     []string{"animedb", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "animedb - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"animedb", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

// urlList numbers up to limit URLs and summarizes the rest.
func urlList(urls []string, limit int) string {
	lines := make([]string, 0, min(len(urls), limit)+1)
	for i, u := range urls[:min(len(urls), limit)] {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, u))
	}
	if len(urls) > limit {
		lines = append(lines, fmt.Sprintf("... and %d more", len(urls)-limit))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "…"
}

func (p Payload) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) num(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) strs(key string) []string {
	v, _ := p[key].([]string)
	return v
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

// NewNoop returns a Service that drops every event.
func NewNoop() Service { return noopService{} }
