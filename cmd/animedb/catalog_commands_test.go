package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"animedb/internal/api"
)

const listing = `1. [S01-E01] Demo [480p] [Dual] https://x/a.mkv
2. Demo 1x02 https://x/b
3. [S01-E01] Frieren [1080p] https://x/f`

func TestUploadFromStdinThenSearch(t *testing.T) {
	env := setupCLITestEnv(t, "42")

	out, _, err := runCLI(t, []string{"upload", "--user", "42"}, env.configPath, listing)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "Added: 3 episodes")

	out, _, err = runCLI(t, []string{"upload", "-", "--user", "42"}, env.configPath, listing)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	requireContains(t, out, "Skipped: 3")

	out, _, err = runCLI(t, []string{"search", "demo"}, env.configPath, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "1. https://x/a.mkv")

	out, _, err = runCLI(t, []string{"search", "--table", "--title", "Frieren"}, env.configPath, "")
	if err != nil {
		t.Fatalf("search table: %v", err)
	}
	requireContains(t, out, "AN002")
	requireContains(t, out, "https://x/f")

	out, _, err = runCLI(t, []string{"--json", "search", "--quality", "480p"}, env.configPath, "")
	if err != nil {
		t.Fatalf("search json: %v", err)
	}
	var result api.SearchResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode search json: %v", err)
	}
	if result.Count != 1 || result.Source != "explicit" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUploadFromFile(t *testing.T) {
	env := setupCLITestEnv(t, "42")
	path := filepath.Join(env.baseDir, "listing.txt")
	if err := os.WriteFile(path, []byte(listing), 0o644); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	out, _, err := runCLI(t, []string{"--json", "upload", path, "--user", "42"}, env.configPath, "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var resp api.UploadResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode upload json: %v", err)
	}
	if resp.Added != 3 || resp.Series != 2 {
		t.Fatalf("unexpected upload response: %+v", resp)
	}
}

func TestUploadRejectsUnknownUser(t *testing.T) {
	env := setupCLITestEnv(t, "42")
	if _, _, err := runCLI(t, []string{"upload", "--user", "7"}, env.configPath, listing); err == nil {
		t.Fatal("expected unauthorized upload to fail")
	}
	if _, _, err := runCLI(t, []string{"upload"}, env.configPath, listing); err == nil {
		t.Fatal("expected missing --user to fail")
	}
	if _, _, err := runCLI(t, []string{"upload", "--user", "42"}, env.configPath, "   "); err == nil {
		t.Fatal("expected empty listing to fail")
	}
}

func TestUploadNothingParsed(t *testing.T) {
	env := setupCLITestEnv(t, "42")
	_, stderr, err := runCLI(t, []string{"upload", "--user", "42"}, env.configPath, "hello there\nno links")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	requireContains(t, stderr, "entry 1")
}

func TestTitlesCommand(t *testing.T) {
	env := setupCLITestEnv(t, "42")

	out, _, err := runCLI(t, []string{"titles"}, env.configPath, "")
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	requireContains(t, out, "Catalog is empty.")

	if _, _, err := runCLI(t, []string{"upload", "--user", "42"}, env.configPath, listing); err != nil {
		t.Fatalf("upload: %v", err)
	}
	out, _, err = runCLI(t, []string{"titles", "--all"}, env.configPath, "")
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	requireContains(t, out, "Catalog (2)")
	requireContains(t, out, "• Frieren")
}

func TestChatWithoutLLM(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"chat", "1. [S01-E01] Demo [480p] https://x/a"}, env.configPath, "")
	if err != nil {
		t.Fatalf("chat upload hint: %v", err)
	}
	requireContains(t, out, "Bulk upload detected")

	if _, _, err := runCLI(t, []string{"chat", "hello"}, env.configPath, ""); err == nil {
		t.Fatal("expected chat to fail without an LLM key")
	}
}
