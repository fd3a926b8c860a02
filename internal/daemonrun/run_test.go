package daemonrun

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"animedb/internal/api"
	"animedb/internal/testsupport"
)

func TestBuildWithoutLLM(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUploaders("42"))
	components, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = components.Close() })

	report, err := components.Uploads.Upload(context.Background(), "42", "1. [S01-E01] Demo [480p] https://x/a")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if report.Added != 1 || string(report.Provenance) != "fallback" {
		t.Fatalf("unexpected report: %+v", report)
	}

	result, err := components.Catalog.Search(context.Background(), "42", "demo", api.Filter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Count != 1 || result.Source != "pattern" {
		t.Fatalf("unexpected search result: %+v", result)
	}

	if _, err := components.Catalog.Chat(context.Background(), "42", "hello"); err == nil {
		t.Fatal("expected chat to be disabled without an LLM key")
	}
}

func TestBuildWithLLM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Try Demo."}}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithLLM(server.URL))
	components, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = components.Close() })

	reply, err := components.Catalog.Chat(context.Background(), "7", "recommend something")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Reply != "Try Demo." {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	families, err := components.Metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metric families")
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animedb.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	if err := writePIDFile(""); err != nil {
		t.Fatalf("empty path should be ignored: %v", err)
	}
}
