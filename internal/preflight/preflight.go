package preflight

import (
	"context"

	"captionize/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckAssemblyAI(ctx, cfg),
	}
	if cfg.Acquisition.Method == "rapidapi" {
		results = append(results, CheckRapidAPIKey(cfg))
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Command}
		if status.Detail != "" {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
