package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeHLTB(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeHLTB() error {
	if value, ok := os.LookupEnv(environmentBaseURL); ok && strings.TrimSpace(value) != "" {
		c.HLTB.BaseURL = value
	}
	c.HLTB.BaseURL = strings.TrimRight(strings.TrimSpace(c.HLTB.BaseURL), "/")
	if c.HLTB.BaseURL == "" {
		c.HLTB.BaseURL = defaultBaseURL
	}
	c.HLTB.UserAgent = strings.TrimSpace(c.HLTB.UserAgent)
	if c.HLTB.UserAgent == "" {
		c.HLTB.UserAgent = defaultUserAgent
	}
	if c.HLTB.RequestTimeout <= 0 {
		c.HLTB.RequestTimeout = defaultRequestTimeout
	}
	if c.HLTB.TokenTTL <= 0 {
		c.HLTB.TokenTTL = defaultTokenTTL
	}
	if c.HLTB.PageSize <= 0 {
		c.HLTB.PageSize = defaultPageSize
	}
	if c.HLTB.ConfirmLimit <= 0 {
		c.HLTB.ConfirmLimit = defaultConfirmLimit
	}
	return nil
}

func (c *Config) normalizeCache() error {
	if value, ok := os.LookupEnv(environmentCachePath); ok && strings.TrimSpace(value) != "" {
		c.Cache.Path = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if c.Cache.FreshTTLHours <= 0 {
		c.Cache.FreshTTLHours = defaultFreshTTLHours
	}
	if c.Cache.StaleTTLHours <= 0 {
		c.Cache.StaleTTLHours = defaultStaleTTLHours
	}
	if c.Cache.NegativeTTLHours <= 0 {
		c.Cache.NegativeTTLHours = defaultNegativeTTLHours
	}
	if c.Lookup.InvalidateAfterMisses < 0 {
		c.Lookup.InvalidateAfterMisses = 0
	}
	return nil
}

func (c *Config) normalizeServer() error {
	if value, ok := os.LookupEnv(environmentServerBindOverride); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if value, ok := os.LookupEnv(environmentServerToken); ok && strings.TrimSpace(value) != "" {
		c.Server.Token = value
	}
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if strings.TrimSpace(c.Server.LockPath) == "" {
		c.Server.LockPath = defaultServerLockPath
	}
	var err error
	if c.Server.LockPath, err = expandPath(c.Server.LockPath); err != nil {
		return fmt.Errorf("server.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = "auto"
	}
	if value, ok := os.LookupEnv(environmentLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
