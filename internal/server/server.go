package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"playtime/internal/config"
	"playtime/internal/hltb"
	"playtime/internal/logging"
	"playtime/internal/lookup"
)

// LookupService answers title lookups.
type LookupService interface {
	Lookup(ctx context.Context, title string, steamAppID int64) (lookup.Result, bool)
	Invalidate()
}

// SessionStatus reports the client's discovered state.
type SessionStatus interface {
	Snapshot() hltb.SessionSnapshot
}

// CacheStats reports the result cache size.
type CacheStats interface {
	Count(ctx context.Context) (int, error)
}

// Server is the local lookup API.
type Server struct {
	bind     string
	token    string
	lockPath string
	lock     *flock.Flock
	logger   *slog.Logger

	lookup   LookupService
	session  SessionStatus
	cache    CacheStats
	gatherer prometheus.Gatherer

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	started  time.Time
	running  atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.NewComponentLogger(logger, "api-server")
	}
}

// WithSessionStatus exposes the client session in /api/status.
func WithSessionStatus(status SessionStatus) Option {
	return func(s *Server) {
		s.session = status
	}
}

// WithCacheStats exposes the cache size in /api/status.
func WithCacheStats(stats CacheStats) Option {
	return func(s *Server) {
		s.cache = stats
	}
}

// WithGatherer serves metrics from gatherer instead of the default registry.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		if gatherer != nil {
			s.gatherer = gatherer
		}
	}
}

// New builds a Server from the [server] configuration section.
func New(cfg *config.Config, svc LookupService, opts ...Option) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("server requires config and lookup service")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server bind address is empty")
	}
	s := &Server{
		bind:     bind,
		token:    cfg.Server.Token,
		lockPath: cfg.Server.LockPath,
		lock:     flock.New(cfg.Server.LockPath),
		logger:   logging.NewComponentLogger(nil, "api-server"),
		lookup:   svc,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lookup", authMiddleware(s.token, s.withRequestID(s.handleLookup)))
	mux.HandleFunc("/api/invalidate", authMiddleware(s.token, s.withRequestID(s.handleInvalidate)))
	mux.HandleFunc("/api/status", authMiddleware(s.token, s.handleStatus))
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start acquires the instance lock and begins serving. The server shuts down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another playtime server holds %s", s.lockPath)
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.started = time.Now()
	s.mu.Unlock()
	s.running.Store(true)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("api server stopped")
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Running reports whether the server is serving.
func (s *Server) Running() bool {
	return s.running.Load()
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() || !s.running.Load() {
		return 0
	}
	return time.Since(s.started)
}
