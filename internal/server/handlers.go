package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"playtime/internal/hltb"
	"playtime/internal/logging"
	"playtime/internal/lookup"
)

const requestIDHeader = "X-Request-ID"

// LookupResponse is the body of GET /api/lookup.
type LookupResponse struct {
	Found     bool           `json:"found"`
	Game      *hltb.Game     `json:"game,omitempty"`
	Outcome   lookup.Outcome `json:"outcome"`
	RequestID string         `json:"request_id"`
}

// SessionResponse describes the client session in /api/status.
type SessionResponse struct {
	HomepageCached bool       `json:"homepage_cached"`
	BuildID        string     `json:"build_id,omitempty"`
	SearchURL      string     `json:"search_url,omitempty"`
	TokenCached    bool       `json:"token_cached"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	Bind          string           `json:"bind"`
	LockPath      string           `json:"lock_path"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	CacheEntries  *int             `json:"cache_entries,omitempty"`
	Session       *SessionResponse `json:"session,omitempty"`
}

// withRequestID carries a caller-supplied X-Request-ID into the request
// context and echoes the effective id back.
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := strings.TrimSpace(r.Header.Get(requestIDHeader)); id != "" {
			ctx = logging.WithRequestID(ctx, id)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		w.Header().Set(requestIDHeader, id)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	title := strings.TrimSpace(query.Get("title"))
	if title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	var steamAppID int64
	if raw := strings.TrimSpace(query.Get("steam_app_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid steam_app_id")
			return
		}
		steamAppID = parsed
	}

	result, found := s.lookup.Lookup(r.Context(), title, steamAppID)
	resp := LookupResponse{Found: found, Outcome: result.Outcome, RequestID: result.RequestID}
	if found {
		game := result.Game
		resp.Game = &game
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.lookup.Invalidate()
	logging.WithContext(r.Context(), s.logger).Info("session invalidated via api")
	s.writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := StatusResponse{
		Running:       s.Running(),
		PID:           os.Getpid(),
		Bind:          s.bind,
		LockPath:      s.lockPath,
		UptimeSeconds: s.uptime().Seconds(),
	}
	if s.cache != nil {
		if count, err := s.cache.Count(r.Context()); err == nil {
			payload.CacheEntries = &count
		} else {
			s.logger.Warn("cache count failed", logging.Error(err))
		}
	}
	if s.session != nil {
		snap := s.session.Snapshot()
		session := &SessionResponse{
			HomepageCached: snap.HomepageCached,
			BuildID:        snap.BuildID,
			SearchURL:      snap.SearchURL,
			TokenCached:    snap.TokenCached,
		}
		if snap.TokenCached {
			expires := snap.TokenExpiresAt
			session.TokenExpiresAt = &expires
		}
		payload.Session = session
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
