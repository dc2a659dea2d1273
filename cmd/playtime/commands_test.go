package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playtime/internal/testsupport"
)

func TestLookupResolvesAndCaches(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"lookup", "Dark", "Souls"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Dark Souls (id 10)")
	requireContains(t, out, "Main:          41h 40m")

	out, _, err = runCLI(t, []string{"lookup", "--json", "dark souls"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup --json: %v", err)
	}
	var payload lookupJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode lookup output: %v\n%s", err, out)
	}
	if !payload.Found || payload.Game == nil || payload.Game.ID != 10 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Outcome != "fresh_hit" {
		t.Fatalf("expected cached answer, got outcome %q", payload.Outcome)
	}
	if payload.Game.MainHours != 41.7 {
		t.Fatalf("expected 41.7 main hours, got %v", payload.Game.MainHours)
	}
	if got := env.site.count("search"); got != 1 {
		t.Fatalf("expected one upstream search, got %d", got)
	}
}

func TestLookupNoMatch(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCacheDisabled())
	env.site.mu.Lock()
	env.site.search = `{"data":[]}`
	env.site.mu.Unlock()

	out, _, err := runCLI(t, []string{"lookup", "Nothing Here"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, `No match for "Nothing Here"`)
	if _, err := os.Stat(env.cfg.Cache.Path); !os.IsNotExist(err) {
		t.Fatalf("expected no cache database when disabled, stat err=%v", err)
	}
}

func TestSearchPlainOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "dark souls"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", out)
	}
	if lines[0] != strings.Join(gameHeaders, "\t") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if want := "11\tDark Souls II\t44h 26m\t--\t--\t47h 13m\t500"; lines[2] != want {
		t.Fatalf("row = %q, want %q", lines[2], want)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"search", "  "}, env.configPath); err == nil {
		t.Fatal("expected error for blank query")
	}
	if got := env.site.count("search"); got != 0 {
		t.Fatalf("expected no upstream search, got %d", got)
	}
}

func TestDetailJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"detail", "--json", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	var payload detailJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode detail output: %v\n%s", err, out)
	}
	if payload.SteamAppID != 211420 || payload.Name != "Dark Souls" {
		t.Fatalf("unexpected detail: %+v", payload)
	}

	if _, _, err := runCLI(t, []string{"detail", "99"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown id")
	}
	if _, _, err := runCLI(t, []string{"detail", "abc"}, env.configPath); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestDiscoverReportsFallback(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"discover"}, env.configPath)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	requireContains(t, out, "Search endpoint: "+env.cfg.HLTB.BaseURL+"/api/search")
	requireContains(t, out, "Fallback used:   yes")
	requireContains(t, out, "Build id:        "+testBuildID)
	requireContains(t, out, "Token issued:    yes")
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"lookup", "Dark Souls"}, env.configPath); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Dark Souls [10]")
	requireContains(t, out, "fresh")

	out, _, err = runCLI(t, []string{"cache", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list --json: %v", err)
	}
	var entries []cacheEntryJSON
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode cache list: %v\n%s", err, out)
	}
	if len(entries) != 1 || !entries[0].Found {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "No cache entries pruned")

	if _, _, err := runCLI(t, []string{"cache", "remove", "999"}, env.configPath); err == nil {
		t.Fatal("expected error removing unknown entry")
	}

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 cache entries")

	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Cache is empty")
}

func TestCacheCommandsRequireEnabledCache(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCacheDisabled())

	_, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled cache error, got %v", err)
	}
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	t.Setenv("PLAYTIME_API_TOKEN", "secret-token")
	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.HLTB.BaseURL)
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("config show leaked the api token:\n%s", out)
	}
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[hltb]\nbase_url = \"ftp://nope\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"lookup", "Dark Souls"}, env.configPath); err == nil {
		t.Fatal("expected config error")
	}
	if got := env.site.count("homepage"); got != 0 {
		t.Fatalf("expected no network traffic, got %d homepage hits", got)
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "[ok  ] Build id         "+testBuildID)
	requireContains(t, out, "[ok  ] Auth token       issued")
	requireContains(t, out, "Result cache")
}

func TestDoctorReportsUnreachableCatalog(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithBaseURL("http://127.0.0.1:1"))

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatalf("expected doctor to fail against an unreachable site:\n%s", out)
	}
	requireContains(t, out, "[FAIL] Build id")

	if _, _, err := runCLI(t, []string{"doctor", "--offline"}, env.configPath); err != nil {
		t.Fatalf("doctor --offline: %v", err)
	}
}
