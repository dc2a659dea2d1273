package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHLTB(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateHLTB() error {
	parsed, err := url.Parse(c.HLTB.BaseURL)
	if err != nil {
		return fmt.Errorf("hltb.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("hltb.base_url must be an http(s) url, got %q", c.HLTB.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("hltb.base_url must include a host, got %q", c.HLTB.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"hltb.request_timeout": c.HLTB.RequestTimeout,
		"hltb.token_ttl":       c.HLTB.TokenTTL,
		"hltb.page_size":       c.HLTB.PageSize,
		"hltb.confirm_limit":   c.HLTB.ConfirmLimit,
	}); err != nil {
		return err
	}
	if c.HLTB.RequestsPerSecond < 0 {
		return errors.New("hltb.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	if c.Cache.StaleTTLHours < c.Cache.FreshTTLHours {
		return errors.New("cache.stale_ttl_hours must be greater than or equal to cache.fresh_ttl_hours")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !strings.Contains(c.Server.Bind, ":") {
		return fmt.Errorf("server.bind must be host:port, got %q", c.Server.Bind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
