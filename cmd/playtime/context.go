package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"playtime/internal/config"
	"playtime/internal/hltb"
	"playtime/internal/logging"
	"playtime/internal/lookup"
	"playtime/internal/matching"
	"playtime/internal/resultcache"
	"playtime/internal/transport"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app is the wired object graph behind every network-facing command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *hltb.Client
	resolver *matching.Resolver
	store    *resultcache.Store
	registry *prometheus.Registry
	lookup   *lookup.Service
}

// openApp builds the client stack. withCache opens the result cache when the
// configuration enables it.
func (c *commandContext) openApp(withCache bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rps := cfg.HLTB.RequestsPerSecond
	httpClient := transport.New(cfg.RequestTimeout(),
		transport.WithRateLimit(rps, int(math.Ceil(rps))),
		transport.WithUserAgent(cfg.HLTB.UserAgent),
	)
	client, err := hltb.New(httpClient,
		hltb.WithBaseURL(cfg.HLTB.BaseURL),
		hltb.WithUserAgent(cfg.HLTB.UserAgent),
		hltb.WithTokenTTL(cfg.TokenTTL()),
		hltb.WithPageSize(cfg.HLTB.PageSize),
		hltb.WithLogger(logging.NewComponentLogger(logger, "hltb")),
	)
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}
	resolver := matching.NewResolver(client, client,
		matching.WithConfirmLimit(cfg.HLTB.ConfirmLimit),
		matching.WithLogger(logging.NewComponentLogger(logger, "matching")),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		resolver: resolver,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var cache lookup.Cache
	if withCache && cfg.Cache.Enabled {
		store, err := resultcache.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open result cache: %w", err)
		}
		a.store = store
		cache = store
	}

	service, err := lookup.New(resolver, client, cache,
		lookup.WithLogger(logging.NewComponentLogger(logger, "lookup")),
		lookup.WithMetrics(lookup.NewMetrics(a.registry)),
		lookup.WithInvalidateAfterMisses(cfg.Lookup.InvalidateAfterMisses),
		lookup.WithRefreshTimeout(3*cfg.RequestTimeout()),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init lookup service: %w", err)
	}
	a.lookup = service
	return a, nil
}

// Close waits for background refreshes and releases the cache.
func (a *app) Close() {
	if a.lookup != nil {
		a.lookup.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close result cache", logging.Error(err))
		}
	}
}

// openCache opens the result cache for maintenance commands.
func (c *commandContext) openCache() (*resultcache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, errors.New("result cache is disabled (set cache.enabled = true)")
	}
	return resultcache.Open(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
