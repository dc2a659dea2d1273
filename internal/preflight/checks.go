package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"playtime/internal/config"
	"playtime/internal/resultcache"
)

// Catalog is the slice of the catalog client the network checks exercise.
type Catalog interface {
	SearchURL(ctx context.Context) string
	FallbackSearchURL() string
	BuildID(ctx context.Context) (string, error)
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

const catalogTimeout = 30 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCache opens the result cache and counts its entries.
func CheckCache(ctx context.Context, cfg *config.Config) Result {
	const name = "Result cache"

	store, err := resultcache.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed (%v)", err)}
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("query failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", store.Path(), count)}
}

// CheckCatalog verifies the three discovered upstream values. A search
// endpoint that fell back to the static path still passes, flagged in the
// detail.
func CheckCatalog(ctx context.Context, catalog Catalog) []Result {
	checkCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	results := make([]Result, 0, 3)

	searchURL := catalog.SearchURL(checkCtx)
	detail := searchURL + " (discovered)"
	if searchURL == catalog.FallbackSearchURL() {
		detail = searchURL + " (fallback; no bundle advertised an endpoint)"
	}
	results = append(results, Result{Name: "Search endpoint", Passed: true, Detail: detail})

	if buildID, err := catalog.BuildID(checkCtx); err != nil {
		results = append(results, Result{Name: "Build id", Detail: summarizeError(err)})
	} else {
		results = append(results, Result{Name: "Build id", Passed: true, Detail: buildID})
	}

	if _, err := catalog.Token(checkCtx, true); err != nil {
		results = append(results, Result{Name: "Auth token", Detail: summarizeError(err)})
	} else {
		results = append(results, Result{Name: "Auth token", Passed: true, Detail: "issued"})
	}

	return results
}

// summarizeError produces a human-readable summary for network check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (catalog site unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (catalog site unreachable)"
	}
	return err.Error()
}
