package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"playtime/internal/config"
	"playtime/internal/testsupport"
)

const testBuildID = "cli-build"

// catalogSite is a minimal stand-in for the catalog site: a homepage with a
// build manifest and no bundles, so discovery settles on the fallback search
// endpoint.
type catalogSite struct {
	mu      sync.Mutex
	search  string
	details map[int64]string
	hits    map[string]int
}

func newCatalogSite(t *testing.T) (*catalogSite, *httptest.Server) {
	t.Helper()
	site := &catalogSite{
		search: `{"data":[` +
			`{"game_id":10,"game_name":"Dark Souls","comp_main":150000,"comp_plus":200000,"comp_100":360000,"comp_all":180000,"comp_all_count":900},` +
			`{"game_id":11,"game_name":"Dark Souls II","comp_main":160000,"comp_plus":0,"comp_100":0,"comp_all":170000,"comp_all_count":500}` +
			`]}`,
		details: map[int64]string{
			10: `{"pageProps":{"game":{"data":{"game":[{"game_id":10,"game_name":"Dark Souls","comp_main":150000,"comp_plus":200000,"comp_100":360000,"comp_all":180000,"profile_steam":211420}]}}}}`,
		},
		hits: map[string]int{},
	}
	server := httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(server.Close)
	return site, server
}

func (s *catalogSite) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch path := r.URL.Path; {
	case path == "/":
		s.hits["homepage"]++
		_, _ = io.WriteString(w, `<html><script src="/_next/static/`+testBuildID+`/_buildManifest.js"></script></html>`)
	case path == "/api/search/init":
		s.hits["token"]++
		_, _ = io.WriteString(w, `{"token":"cli-token"}`)
	case path == "/api/search" && r.Method == http.MethodPost:
		s.hits["search"]++
		_, _ = io.WriteString(w, s.search)
	case strings.HasPrefix(path, "/_next/data/"+testBuildID+"/game/"):
		s.hits["detail"]++
		var id int64
		if _, err := fmt.Sscanf(path, "/_next/data/"+testBuildID+"/game/%d.json", &id); err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := s.details[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (s *catalogSite) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

type cliTestEnv struct {
	cfg        *config.Config
	site       *catalogSite
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	isolateEnv(t)

	site, server := newCatalogSite(t)
	opts = append([]testsupport.ConfigOption{testsupport.WithBaseURL(server.URL)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, site: site, configPath: configPath}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"PLAYTIME_BASE_URL",
		"PLAYTIME_LOG_LEVEL",
		"PLAYTIME_CACHE_PATH",
		"PLAYTIME_BIND",
		"PLAYTIME_API_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
