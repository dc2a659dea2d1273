package hltb

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"playtime/internal/logging"
)

// DefaultTokenTTL is how long an issued token is reused.
const DefaultTokenTTL = 300 * time.Second

// TokenManager issues and caches the x-auth-token search requests need.
type TokenManager struct {
	baseURL   string
	userAgent string
	transport Transport
	session   *Session
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewTokenManager builds a TokenManager. A non-positive ttl selects
// DefaultTokenTTL; a nil clock selects time.Now.
func NewTokenManager(baseURL, userAgent string, t Transport, session *Session, ttl time.Duration, now func() time.Time, logger *slog.Logger) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		transport: t,
		session:   session,
		ttl:       ttl,
		now:       now,
		logger:    logging.NewComponentLogger(logger, "hltb-token"),
	}
}

// Token returns a valid token, fetching one when none is cached, the cached
// one has expired, or forceRefresh is set. A forced call always makes its own
// fetch rather than joining an unforced one. Errors wrap ErrAuth.
func (m *TokenManager) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if forceRefresh {
		m.Invalidate()
	}
	token, err := resolve(ctx, m.session, slot[Token]{
		key:   "token",
		force: forceRefresh,
		cached: func() (Token, bool) {
			return m.session.token, m.session.token.Valid(m.now())
		},
		fetch: m.fetch,
		store: func(t Token) {
			m.session.token = t
		},
	})
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (m *TokenManager) Invalidate() {
	m.session.mu.Lock()
	m.session.token = Token{}
	m.session.mu.Unlock()
}

func (m *TokenManager) fetch(ctx context.Context) (Token, bool, error) {
	endpoint := m.baseURL + "/api/search/init?t=" + strconv.FormatInt(m.now().UnixMilli(), 10)
	resp, err := m.transport.Get(ctx, endpoint, browserHeaders(m.baseURL, m.userAgent))
	if err != nil {
		return Token{}, false, wrap(ErrAuth, "token", "request failed", err)
	}
	if !resp.OK() {
		return Token{}, false, wrap(ErrAuth, "token", "init endpoint rejected request", statusError("token", resp.Status))
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return Token{}, false, wrap(ErrAuth, "token", "decode response", err)
	}
	if strings.TrimSpace(payload.Token) == "" {
		return Token{}, false, wrap(ErrAuth, "token", "response carried no token", nil)
	}
	issued := m.now()
	m.logger.Debug("auth token issued", logging.String("expires_at", issued.Add(m.ttl).Format(time.RFC3339)))
	return Token{Value: payload.Token, ExpiresAt: issued.Add(m.ttl)}, true, nil
}
