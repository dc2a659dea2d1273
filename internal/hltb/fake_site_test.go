package hltb_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"playtime/internal/hltb"
	"playtime/internal/transport"
)

const testBuildID = "bld-42"

// fakeSite serves a minimal copy of the catalog site's surface.
type fakeSite struct {
	mu sync.Mutex

	homepage       string
	homepageStatus int
	bundles        map[string]string
	token          string
	searchStatus   int
	searchBody     string
	details        map[int64]string

	hits         map[string]int
	searchPath   string
	searchBodies [][]byte
	searchHeader http.Header
}

func newFakeSite(t *testing.T) (*fakeSite, *httptest.Server) {
	t.Helper()
	site := &fakeSite{
		homepage: `<html><head>
<script src="/_next/static/chunks/webpack-1.js" defer></script>
<script src="/_next/static/chunks/pages/_app-2.js" defer></script>
<script src="/_next/static/` + testBuildID + `/_buildManifest.js" defer></script>
</head></html>`,
		homepageStatus: http.StatusOK,
		bundles: map[string]string{
			"/_next/static/chunks/webpack-1.js": `!function(){var e="/api/user";fetch(e,{method:"POST"})}();`,
			"/_next/static/chunks/pages/_app-2.js": `const a=fetch("/api/locale",{method:"GET"});` +
				`async function s(t){return fetch("/api/finder",{method: 'POST',headers:{"x-auth-token":t}})}`,
		},
		token:        "tok-1",
		searchStatus: http.StatusOK,
		searchBody:   `{"data":[]}`,
		details:      map[int64]string{},
		hits:         map[string]int{},
	}
	server := httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(server.Close)
	return site, server
}

func (s *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := r.URL.Path
	switch {
	case path == "/":
		s.hits["homepage"]++
		w.WriteHeader(s.homepageStatus)
		_, _ = io.WriteString(w, s.homepage)
	case strings.HasPrefix(path, "/_next/static/chunks/"):
		s.hits["bundle"]++
		body, ok := s.bundles[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	case path == "/api/search/init":
		s.hits["token"]++
		if r.URL.Query().Get("t") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintf(w, `{"token":%q}`, s.token)
	case strings.HasPrefix(path, "/api/") && r.Method == http.MethodPost:
		s.hits["search"]++
		s.searchPath = path
		body, _ := io.ReadAll(r.Body)
		s.searchBodies = append(s.searchBodies, body)
		s.searchHeader = r.Header.Clone()
		w.WriteHeader(s.searchStatus)
		_, _ = io.WriteString(w, s.searchBody)
	case strings.HasPrefix(path, "/_next/data/"):
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

func (s *fakeSite) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func (s *fakeSite) set(fn func(*fakeSite)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...hltb.Option) *hltb.Client {
	t.Helper()
	opts = append([]hltb.Option{hltb.WithBaseURL(server.URL)}, opts...)
	client, err := hltb.New(transport.New(2*time.Second), opts...)
	if err != nil {
		t.Fatalf("hltb.New: %v", err)
	}
	return client
}

func detailBody(id int64, name string, steamID int64) string {
	return fmt.Sprintf(`{"pageProps":{"game":{"data":{"game":[{"game_id":%d,"game_name":%q,"comp_main":36000,"comp_plus":54000,"comp_100":90000,"comp_all":43200,"profile_steam":%d}]}}}}`,
		id, name, steamID)
}

func newHandlerServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
