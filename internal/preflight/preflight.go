package preflight

import (
	"context"

	"jellyzam/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory holds the catalog and locks (always checked)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	results = append(results, CheckRecognition(cfg.Recognition))

	// Organization target may not exist yet; its nearest ancestor must be writable.
	if cfg.Organize.Enabled && cfg.Organize.BasePath != "" {
		results = append(results, CheckTargetDirectory("Library base path", cfg.Organize.BasePath))
	}

	for _, dir := range cfg.Scan.WatchDirs {
		results = append(results, CheckDirectoryAccess("Watch directory", dir))
	}

	if cfg.Jellyfin.Enabled {
		results = append(results, CheckJellyfin(ctx, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
