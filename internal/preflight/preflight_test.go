package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"playtime/internal/config"
	"playtime/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type stubCatalog struct {
	searchURL string
	fallback  string
	buildID   string
	buildErr  error
	tokenErr  error
	forced    bool
}

func (s *stubCatalog) SearchURL(context.Context) string { return s.searchURL }
func (s *stubCatalog) FallbackSearchURL() string { return s.fallback }
func (s *stubCatalog) BuildID(context.Context) (string, error) {
	return s.buildID, s.buildErr
}
func (s *stubCatalog) Token(_ context.Context, force bool) (string, error) {
	s.forced = force
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return "tok", nil
}

func TestCheckCatalog(t *testing.T) {
	tests := []struct {
		name    string
		catalog *stubCatalog
		passed  []bool
		detail  string
	}{
		{
			name:    "all discovered",
			catalog: &stubCatalog{searchURL: "https://x/api/finder", fallback: "https://x/api/search", buildID: "b1"},
			passed:  []bool{true, true, true},
			detail:  "https://x/api/finder (discovered)",
		},
		{
			name:    "fallback endpoint",
			catalog: &stubCatalog{searchURL: "https://x/api/search", fallback: "https://x/api/search", buildID: "b1"},
			passed:  []bool{true, true, true},
			detail:  "https://x/api/search (fallback; no bundle advertised an endpoint)",
		},
		{
			name: "build id and token fail",
			catalog: &stubCatalog{
				searchURL: "https://x/api/search",
				fallback:  "https://x/api/search",
				buildErr:  errors.New("build id not found"),
				tokenErr:  context.DeadlineExceeded,
			},
			passed: []bool{true, false, false},
			detail: "https://x/api/search (fallback; no bundle advertised an endpoint)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := CheckCatalog(context.Background(), tt.catalog)
			if len(results) != len(tt.passed) {
				t.Fatalf("expected %d results, got %d", len(tt.passed), len(results))
			}
			for i, want := range tt.passed {
				if results[i].Passed != want {
					t.Fatalf("result %d (%s) passed=%v, want %v: %s", i, results[i].Name, results[i].Passed, want, results[i].Detail)
				}
			}
			if results[0].Detail != tt.detail {
				t.Fatalf("search detail = %q, want %q", results[0].Detail, tt.detail)
			}
			if !tt.catalog.forced {
				t.Fatal("expected token check to force a fresh token")
			}
		})
	}
}

func TestSummarizeErrorTimeout(t *testing.T) {
	if got := summarizeError(context.DeadlineExceeded); got != "timed out (catalog site unresponsive)" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestRunAllSkipsDisabledCache(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg, nil)
	if len(results) != 2 {
		t.Fatalf("expected directory checks only, got %+v", results)
	}
	if !Passed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAllChecksCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg, nil)
	var cache *Result
	for i := range results {
		if results[i].Name == "Result cache" {
			cache = &results[i]
		}
	}
	if cache == nil || !cache.Passed {
		t.Fatalf("expected passing cache check, got %+v", results)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), (*config.Config)(nil), nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}
