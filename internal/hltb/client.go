package hltb

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"playtime/internal/logging"
)

// DefaultBaseURL is the public catalog site.
const DefaultBaseURL = "https://howlongtobeat.com"

// DefaultUserAgent mimics a desktop browser; the site rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client wires discovery, token handling, search, and detail lookups around
// one Session.
type Client struct {
	session   *Session
	discovery *Discovery
	tokens    *TokenManager
	search    *SearchClient
	details   *DetailFetcher
	logger    *slog.Logger
}

type clientOptions struct {
	baseURL   string
	userAgent string
	tokenTTL  time.Duration
	pageSize  int
	now       func() time.Time
	logger    *slog.Logger
	session   *Session
}

// Option configures a Client.
type Option func(*clientOptions)

// WithBaseURL overrides the catalog site root.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(o *clientOptions) {
		if agent = strings.TrimSpace(agent); agent != "" {
			o.userAgent = agent
		}
	}
}

// WithTokenTTL overrides how long an auth token is reused.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *clientOptions) {
		if ttl > 0 {
			o.tokenTTL = ttl
		}
	}
}

// WithPageSize overrides the number of results requested per page.
func WithPageSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithClock replaces time.Now for token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithSession shares an existing session instead of creating a new one.
func WithSession(session *Session) Option {
	return func(o *clientOptions) {
		if session != nil {
			o.session = session
		}
	}
}

// New creates a Client issuing requests through t.
func New(t Transport, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errors.New("hltb: transport is required")
	}
	o := clientOptions{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		tokenTTL:  DefaultTokenTTL,
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.session == nil {
		o.session = NewSession()
	}
	base := strings.TrimRight(o.baseURL, "/")

	discovery := NewDiscovery(base, o.userAgent, t, o.session, o.logger)
	tokens := NewTokenManager(base, o.userAgent, t, o.session, o.tokenTTL, o.now, o.logger)
	return &Client{
		session:   o.session,
		discovery: discovery,
		tokens:    tokens,
		search:    NewSearchClient(base, o.userAgent, t, discovery, tokens, o.pageSize, o.logger),
		details:   NewDetailFetcher(base, o.userAgent, t, discovery, o.logger),
		logger:    logging.NewComponentLogger(o.logger, "hltb"),
	}, nil
}

// Search runs one page of a game search.
func (c *Client) Search(ctx context.Context, query string, page int, modifier string) ([]Game, error) {
	return c.search.Search(ctx, query, page, modifier)
}

// FetchDetail returns the detail record for a catalog id.
func (c *Client) FetchDetail(ctx context.Context, gameID int64) (Detail, error) {
	return c.details.FetchDetail(ctx, gameID)
}

// SearchURL returns the discovered (or fallback) search endpoint.
func (c *Client) SearchURL(ctx context.Context) string {
	return c.discovery.SearchURL(ctx)
}

// FallbackSearchURL is the static endpoint used when discovery finds nothing.
func (c *Client) FallbackSearchURL() string {
	return c.discovery.FallbackSearchURL()
}

// BuildID returns the discovered Next.js build id.
func (c *Client) BuildID(ctx context.Context) (string, error) {
	return c.discovery.BuildID(ctx)
}

// Token returns a valid auth token.
func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	return c.tokens.Token(ctx, forceRefresh)
}

// InvalidateCache drops every discovered value so the next call rediscovers
// the homepage, build id, search endpoint, and token.
func (c *Client) InvalidateCache() {
	c.session.Invalidate()
	c.logger.Info("session invalidated")
}

// Snapshot reports the session's cached state.
func (c *Client) Snapshot() SessionSnapshot {
	return c.session.Snapshot()
}
