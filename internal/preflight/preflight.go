package preflight

import (
	"context"

	"animedb/internal/config"
)

// Result reports the outcome of a single preflight check. Optional failures
// are reported but never stop the daemon.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes the checks that apply to cfg, in display order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckCatalog(ctx, cfg))
	if cfg.LLMEnabled() {
		results = append(results, optional(CheckLLM(ctx, "LLM", cfg.GetLLM())))
	}
	return results
}

// Blocking filters results down to required checks that failed.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func optional(r Result) Result {
	r.Optional = true
	return r
}
