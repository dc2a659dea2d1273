package preflight

import (
	"context"
	"path/filepath"

	"playtime/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// A nil catalog skips the network checks.
func RunAll(ctx context.Context, cfg *config.Config, catalog Catalog) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	results = append(results, CheckDirectoryAccess("Lock directory", filepath.Dir(cfg.Server.LockPath)))

	if cfg.Cache.Enabled {
		results = append(results, CheckDirectoryAccess("Cache directory", filepath.Dir(cfg.Cache.Path)))
		results = append(results, CheckCache(ctx, cfg))
	}

	if catalog != nil {
		results = append(results, CheckCatalog(ctx, catalog)...)
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
