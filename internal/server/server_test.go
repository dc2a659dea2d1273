package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"playtime/internal/hltb"
	"playtime/internal/lookup"
	"playtime/internal/server"
	"playtime/internal/testsupport"
)

type lookupStub struct {
	mu          sync.Mutex
	games       map[string]hltb.Game
	lastTitle   string
	lastSteamID int64
	invalidated int
}

func (s *lookupStub) Lookup(ctx context.Context, title string, steamAppID int64) (lookup.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTitle = title
	s.lastSteamID = steamAppID
	game, ok := s.games[title]
	if !ok {
		return lookup.Result{Outcome: lookup.OutcomeNotFound, RequestID: "rid"}, false
	}
	return lookup.Result{Game: game, Found: true, Outcome: lookup.OutcomeResolved, RequestID: "rid"}, true
}

func (s *lookupStub) Invalidate() {
	s.mu.Lock()
	s.invalidated++
	s.mu.Unlock()
}

type sessionStub struct{}

func (sessionStub) Snapshot() hltb.SessionSnapshot {
	return hltb.SessionSnapshot{HomepageCached: true, BuildID: "b1", SearchURL: "https://example.test/api/s", TokenCached: true, TokenExpiresAt: time.Unix(100, 0)}
}

type countStub int

func (c countStub) Count(context.Context) (int, error) { return int(c), nil }

func newServer(t *testing.T, stub *lookupStub, opts ...server.Option) *server.Server {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	srv, err := server.New(cfg, stub, opts...)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv
}

func TestLookupHandler(t *testing.T) {
	stub := &lookupStub{games: map[string]hltb.Game{"Celeste": {ID: 9, Name: "Celeste", MainSeconds: 28800}}}
	handler := newServer(t, stub).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/lookup?title=Celeste&steam_app_id=504230", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp server.LookupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Found || resp.Game == nil || resp.Game.ID != 9 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if stub.lastSteamID != 504230 {
		t.Fatalf("steam id = %d", stub.lastSteamID)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestLookupHandlerNotFound(t *testing.T) {
	handler := newServer(t, &lookupStub{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/lookup?title=Unknown", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp server.LookupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Found || resp.Game != nil || resp.Outcome != lookup.OutcomeNotFound {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLookupHandlerRejectsBadRequests(t *testing.T) {
	handler := newServer(t, &lookupStub{}).Handler()
	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing title", http.MethodGet, "/api/lookup", http.StatusBadRequest},
		{"blank title", http.MethodGet, "/api/lookup?title=%20%20", http.StatusBadRequest},
		{"bad steam id", http.MethodGet, "/api/lookup?title=x&steam_app_id=abc", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/api/lookup?title=x", http.StatusMethodNotAllowed},
		{"invalidate via get", http.MethodGet, "/api/invalidate", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestInvalidateHandler(t *testing.T) {
	stub := &lookupStub{}
	handler := newServer(t, stub).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/invalidate", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if stub.invalidated != 1 {
		t.Fatalf("invalidated = %d, want 1", stub.invalidated)
	}
}

func TestStatusHandler(t *testing.T) {
	handler := newServer(t, &lookupStub{},
		server.WithSessionStatus(sessionStub{}),
		server.WithCacheStats(countStub(4)),
	).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp server.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.CacheEntries == nil || *resp.CacheEntries != 4 {
		t.Fatalf("cache entries = %v", resp.CacheEntries)
	}
	if resp.Session == nil || resp.Session.BuildID != "b1" || !resp.Session.TokenCached || resp.Session.TokenExpiresAt == nil {
		t.Fatalf("session = %+v", resp.Session)
	}
	if resp.Running {
		t.Fatal("server reported running before Start")
	}
}

func TestAuthToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Token = "s3cret"
	srv, err := server.New(cfg, &lookupStub{})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	handler := srv.Handler()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := lookup.NewMetrics(reg)
	service, err := lookup.New(resolverFunc(func(context.Context, string, int64) (hltb.Game, error) {
		return hltb.Game{ID: 1, Name: "Tetris"}, nil
	}), nil, nil, lookup.WithMetrics(metrics))
	if err != nil {
		t.Fatalf("lookup.New: %v", err)
	}
	cfg := testsupport.NewConfig(t)
	srv, err := server.New(cfg, service, server.WithGatherer(reg))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	handler := srv.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lookup?title=Tetris", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `playtime_lookups_total{outcome="resolved"} 1`) {
		t.Fatalf("metrics missing lookup counter:\n%s", body)
	}
}

type resolverFunc func(context.Context, string, int64) (hltb.Game, error)

func (f resolverFunc) Resolve(ctx context.Context, title string, steamAppID int64) (hltb.Game, error) {
	return f(ctx, title, steamAppID)
}

func TestStartServesAndHoldsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &lookupStub{games: map[string]hltb.Game{"Hades": {ID: 3, Name: "Hades"}}}
	first, err := server.New(cfg, stub)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := server.New(cfg, stub)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second server to fail on held lock")
	}

	resp, err := http.Get("http://" + first.Addr() + "/api/lookup?title=Hades")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"found":true`) {
		t.Fatalf("response %d: %s", resp.StatusCode, body)
	}

	first.Stop()
	if first.Running() {
		t.Fatal("server still running after Stop")
	}
	third, err := server.New(cfg, stub)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	if err := third.Start(ctx); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	third.Stop()
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := server.New(nil, &lookupStub{}); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := server.New(testsupport.NewConfig(t), nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}
