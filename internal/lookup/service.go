package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"playtime/internal/hltb"
	"playtime/internal/logging"
	"playtime/internal/resultcache"
)

// Outcome labels how a lookup was answered.
type Outcome string

const (
	OutcomeFreshHit    Outcome = "fresh_hit"
	OutcomeStaleHit    Outcome = "stale_hit"
	OutcomeNegativeHit Outcome = "negative_hit"
	OutcomeResolved    Outcome = "resolved"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeError       Outcome = "error"
)

const defaultRefreshTimeout = 30 * time.Second

// Resolver picks the best catalog entry for a title.
type Resolver interface {
	Resolve(ctx context.Context, title string, steamAppID int64) (hltb.Game, error)
}

// Invalidator drops discovered upstream state.
type Invalidator interface {
	InvalidateCache()
}

// Cache stores resolved lookups.
type Cache interface {
	Get(ctx context.Context, key string) (resultcache.Entry, resultcache.Freshness, bool, error)
	Put(ctx context.Context, entry resultcache.Entry) error
}

// Result is the answer to one lookup.
type Result struct {
	Game      hltb.Game `json:"game"`
	Found     bool      `json:"found"`
	Outcome   Outcome   `json:"outcome"`
	RequestID string    `json:"request_id"`
}

// Service answers lookups. It is safe for concurrent use.
type Service struct {
	resolver       Resolver
	invalidator    Invalidator
	cache          Cache
	metrics        *Metrics
	logger         *slog.Logger
	missThreshold  int
	refreshTimeout time.Duration

	mu     sync.Mutex
	misses int

	refreshes singleflight.Group
	wg        sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "lookup")
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithInvalidateAfterMisses invalidates the client session after n
// consecutive misses. Zero disables it.
func WithInvalidateAfterMisses(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.missThreshold = n
		}
	}
}

// WithRefreshTimeout bounds each background refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// New builds a Service. cache may be nil, which disables caching.
func New(resolver Resolver, invalidator Invalidator, cache Cache, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("lookup: resolver is required")
	}
	s := &Service{
		resolver:       resolver,
		invalidator:    invalidator,
		cache:          cache,
		logger:         logging.NewComponentLogger(nil, "lookup"),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lookup returns the completion record for title. Every failure collapses
// into found == false; details are logged.
func (s *Service) Lookup(ctx context.Context, title string, steamAppID int64) (Result, bool) {
	ctx, requestID := logging.EnsureRequestID(ctx)
	title = strings.TrimSpace(title)
	ctx = logging.WithTitle(ctx, title)
	logger := logging.WithContext(ctx, s.logger)
	result := Result{RequestID: requestID}

	if title == "" {
		result.Outcome = OutcomeNotFound
		s.metrics.observeLookup(result.Outcome)
		return result, false
	}
	if steamAppID < 0 {
		steamAppID = 0
	}
	key := resultcache.Key(title, steamAppID)

	if s.cache != nil {
		entry, freshness, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "cache read failed", "cache_read_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "lookup resolved against the network"),
			)
		case ok && freshness == resultcache.Fresh:
			result.Found = entry.Found
			result.Game = entry.Game
			result.Outcome = OutcomeFreshHit
			if !entry.Found {
				result.Outcome = OutcomeNegativeHit
			}
			logger.Debug("cache hit", logging.String("freshness", freshness.String()), logging.Bool("found", entry.Found))
			s.metrics.observeLookup(result.Outcome)
			return result, result.Found
		case ok && freshness == resultcache.Stale && entry.Found:
			s.scheduleRefresh(ctx, key, title, steamAppID)
			result.Found = true
			result.Game = entry.Game
			result.Outcome = OutcomeStaleHit
			logger.Debug("stale cache hit; refresh scheduled")
			s.metrics.observeLookup(result.Outcome)
			return result, true
		}
	}

	game, outcome := s.resolve(ctx, key, title, steamAppID)
	result.Outcome = outcome
	s.metrics.observeLookup(outcome)
	if outcome != OutcomeResolved {
		return result, false
	}
	result.Found = true
	result.Game = game
	return result, true
}

// resolve queries the catalog and records the answer in the cache and the
// miss counter.
func (s *Service) resolve(ctx context.Context, key, title string, steamAppID int64) (hltb.Game, Outcome) {
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()
	game, err := s.resolver.Resolve(ctx, title, steamAppID)
	s.metrics.observeResolve(time.Since(start).Seconds())

	switch {
	case err == nil:
		s.resetMisses()
		s.store(ctx, resultcache.Entry{Key: key, Title: title, SteamAppID: steamAppID, Found: true, Game: game})
		logger.Info("title resolved",
			logging.GameID(game.ID),
			logging.String("name", game.Name),
			logging.Duration("latency", time.Since(start)),
		)
		return game, OutcomeResolved
	case errors.Is(err, hltb.ErrNotFound):
		s.recordMiss(ctx)
		s.store(ctx, resultcache.Entry{Key: key, Title: title, SteamAppID: steamAppID})
		logger.Info("title not found", logging.Error(err))
		return hltb.Game{}, OutcomeNotFound
	case errors.Is(err, hltb.ErrSchema):
		s.recordMiss(ctx)
		logging.WarnWithContext(logger, "catalog response rejected", "schema_violation",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the site may have changed its response format"),
			logging.String(logging.FieldImpact, "lookup returned no result"),
		)
		return hltb.Game{}, OutcomeError
	default:
		logging.WarnWithContext(logger, "lookup failed", "lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "lookup returned no result"),
		)
		return hltb.Game{}, OutcomeError
	}
}

func (s *Service) store(ctx context.Context, entry resultcache.Entry) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "result not cached"),
		)
	}
}

// scheduleRefresh re-resolves key in the background. Concurrent requests for
// the same key share one refresh.
func (s *Service) scheduleRefresh(ctx context.Context, key, title string, steamAppID int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		_, _, shared := s.refreshes.Do(key, func() (any, error) {
			_, outcome := s.resolve(refreshCtx, key, title, steamAppID)
			s.metrics.observeRefresh(string(outcome))
			return nil, nil
		})
		if shared {
			logging.WithContext(ctx, s.logger).Debug("background refresh shared", logging.String("key", key))
		}
	}()
}

func (s *Service) recordMiss(ctx context.Context) {
	if s.missThreshold <= 0 {
		return
	}
	s.mu.Lock()
	s.misses++
	trip := s.misses >= s.missThreshold
	if trip {
		s.misses = 0
	}
	s.mu.Unlock()
	if trip {
		logging.WithContext(ctx, s.logger).Info("consecutive misses reached threshold; invalidating session",
			logging.Args(logging.DecisionAttrs("invalidate", "triggered", "consecutive misses")...)...)
		s.invalidate()
	}
}

func (s *Service) resetMisses() {
	s.mu.Lock()
	s.misses = 0
	s.mu.Unlock()
}

// Misses returns the current run of consecutive misses.
func (s *Service) Misses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.misses
}

// Invalidate drops the client's discovered session state.
func (s *Service) Invalidate() {
	s.resetMisses()
	s.invalidate()
}

func (s *Service) invalidate() {
	if s.invalidator == nil {
		return
	}
	s.invalidator.InvalidateCache()
	s.metrics.observeInvalidation()
}

// Wait blocks until background refreshes finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
