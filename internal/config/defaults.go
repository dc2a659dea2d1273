package config

const (
	defaultBaseURL                = "https://howlongtobeat.com"
	defaultUserAgent              = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultRequestTimeout         = 10
	defaultTokenTTL               = 300
	defaultPageSize               = 20
	defaultConfirmLimit           = 3
	defaultRequestsPerSecond      = 4.0
	defaultCachePath              = "~/.cache/playtime/results.db"
	defaultFreshTTLHours          = 24 * 7
	defaultStaleTTLHours          = 24 * 30
	defaultNegativeTTLHours       = 24
	defaultInvalidateAfterMisses  = 3
	defaultServerBind             = "127.0.0.1:7488"
	defaultServerLockPath         = "~/.local/share/playtime/playtime.lock"
	defaultLogDir                 = "~/.local/share/playtime/logs"
	defaultLogFormat              = "auto"
	defaultLogLevel               = "info"
	defaultConfigPathTemplate     = "~/.config/playtime/config.toml"
	defaultProjectConfigFileName  = "playtime.toml"
	environmentBaseURL            = "PLAYTIME_BASE_URL"
	environmentLogLevel           = "PLAYTIME_LOG_LEVEL"
	environmentCachePath          = "PLAYTIME_CACHE_PATH"
	environmentServerBindOverride = "PLAYTIME_BIND"
	environmentServerToken        = "PLAYTIME_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		HLTB: HLTB{
			BaseURL:           defaultBaseURL,
			UserAgent:         defaultUserAgent,
			RequestTimeout:    defaultRequestTimeout,
			TokenTTL:          defaultTokenTTL,
			PageSize:          defaultPageSize,
			ConfirmLimit:      defaultConfirmLimit,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		Cache: Cache{
			Enabled:          true,
			Path:             defaultCachePath,
			FreshTTLHours:    defaultFreshTTLHours,
			StaleTTLHours:    defaultStaleTTLHours,
			NegativeTTLHours: defaultNegativeTTLHours,
		},
		Lookup: Lookup{
			InvalidateAfterMisses: defaultInvalidateAfterMisses,
		},
		Server: Server{
			Bind:     defaultServerBind,
			LockPath: defaultServerLockPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
