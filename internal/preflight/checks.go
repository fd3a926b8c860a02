package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"animedb/internal/catalog"
	"animedb/internal/config"
	"animedb/internal/services"
	"animedb/internal/services/llm"
)

const (
	llmCheckTimeout     = 30 * time.Second
	catalogCheckTimeout = 10 * time.Second
)

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// CheckLLM sends one health-check completion without retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return fail(name, "API key missing")
	}
	ctx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	switch err := client.HealthCheck(ctx); {
	case err == nil:
		return pass(name, "API reachable")
	case errors.Is(err, services.ErrTimeout):
		return fail(name, "health check timed out (LLM API unresponsive)")
	default:
		return fail(name, "%v", err)
	}
}

// CheckCatalog opens the configured store and reports its size.
func CheckCatalog(ctx context.Context, cfg *config.Config) Result {
	name := "Catalog (" + cfg.Store.Backend + ")"
	path := cfg.Store.Path

	store, err := catalog.Open(cfg)
	if err != nil {
		return fail(name, "%s (error: %v)", path, err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(ctx, catalogCheckTimeout)
	defer cancel()
	stats, err := store.Stats(ctx)
	if err != nil {
		return fail(name, "%s (error: %v)", path, err)
	}
	return pass(name, "%s (%d records, %d series)", path, stats.Records, stats.Series)
}

// CheckDirectoryAccess requires path to be a directory the process can list
// and write into.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail(name, "%s (error: does not exist)", path)
	case err != nil:
		return fail(name, "%s (error: stat: %v)", path, err)
	case !info.IsDir():
		return fail(name, "%s (error: is not a directory)", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, "%s (error: insufficient permissions: %v)", path, err)
	}
	return pass(name, "%s (read/write ok)", path)
}
