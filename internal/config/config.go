package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// HLTB contains configuration for the HowLongToBeat client.
type HLTB struct {
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	RequestTimeout    int     `toml:"request_timeout"` // seconds
	TokenTTL          int     `toml:"token_ttl"`       // seconds
	PageSize          int     `toml:"page_size"`
	ConfirmLimit      int     `toml:"confirm_limit"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables client-side limiting
}

// Cache contains configuration for the on-device result cache.
type Cache struct {
	Enabled          bool   `toml:"enabled"`
	Path             string `toml:"path"`
	FreshTTLHours    int    `toml:"fresh_ttl_hours"`
	StaleTTLHours    int    `toml:"stale_ttl_hours"`
	NegativeTTLHours int    `toml:"negative_ttl_hours"`
}

// Lookup contains configuration for the host-facing lookup service.
type Lookup struct {
	// InvalidateAfterMisses forces full endpoint rediscovery after this many
	// consecutive not-found resolutions. 0 disables the behaviour.
	InvalidateAfterMisses int `toml:"invalidate_after_misses"`
}

// Server contains configuration for the local lookup API.
type Server struct {
	Bind     string `toml:"bind"`
	LockPath string `toml:"lock_path"`
	// Token, when set, is required as "Authorization: Bearer <token>".
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for playtime.
//
// Configuration sections by subsystem:
//   - HLTB: upstream site, timeouts, token lifetime, matching limits
//   - Cache: result cache location and freshness windows
//   - Lookup: staleness-driven invalidation policy
//   - Server: local HTTP API bind address and instance lock
//   - Logging: log format, level, and directory
type Config struct {
	HLTB    HLTB    `toml:"hltb"`
	Cache   Cache   `toml:"cache"`
	Lookup  Lookup  `toml:"lookup"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPathTemplate)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFileName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the cache, logs, and lock file live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Dir, filepath.Dir(c.Server.LockPath)}
	if c.Cache.Enabled {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request network timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HLTB.RequestTimeout) * time.Second
}

// TokenTTL returns the lifetime applied to freshly issued auth tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.HLTB.TokenTTL) * time.Second
}

// FreshTTL returns how long a positive cache entry is served without revalidation.
func (c *Config) FreshTTL() time.Duration {
	return time.Duration(c.Cache.FreshTTLHours) * time.Hour
}

// StaleTTL returns how long an entry may still be served while it is revalidated.
func (c *Config) StaleTTL() time.Duration {
	return time.Duration(c.Cache.StaleTTLHours) * time.Hour
}

// NegativeTTL returns how long a not-found result is remembered.
func (c *Config) NegativeTTL() time.Duration {
	return time.Duration(c.Cache.NegativeTTLHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
