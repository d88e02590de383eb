// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// MaxTrendAlpha bounds the recency decay of the rating trend.
const MaxTrendAlpha = 10.0

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIURL is the GraphQL endpoint of the statistics source.
	APIURL string `koanf:"api_url"`

	// Season is used when a request does not name one.
	Season int `koanf:"season"`

	// HTTPTimeoutMS bounds one statistics API call, retries excluded.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// HTTPRetryMax is the number of retries after a failed statistics call.
	HTTPRetryMax int `koanf:"http_retry_max"`

	// FetchConcurrency caps parallel team lookups for one event.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// RateLimit caps statistics API calls per second.
	RateLimit float64 `koanf:"rate_limit"`

	// CacheTTLSeconds is how long an event report stays cached.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// CacheDir mirrors cached reports to disk when set.
	CacheDir string `koanf:"cache_dir"`

	// MatchesPerTeam is the default schedule length per team.
	MatchesPerTeam int `koanf:"matches_per_team"`

	// MaxRetries bounds candidate draws per scheduled match.
	MaxRetries int `koanf:"max_retries"`

	// Trials is the number of Monte Carlo trials per forecast.
	Trials int `koanf:"trials"`

	// TrialWorkers is the number of goroutines running trials.
	TrialWorkers int `koanf:"trial_workers"`

	// Seed makes forecasts reproducible. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// TrendAlpha is the recency decay of the rating trend.
	TrendAlpha float64 `koanf:"trend_alpha"`

	// AuthUsername and AuthPassword enable HTTP basic auth when set.
	AuthUsername string `koanf:"auth_username"`
	AuthPassword string `koanf:"auth_password"`

	// AllowedOrigins is a comma separated CORS origin list.
	AllowedOrigins string `koanf:"allowed_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		APIURL:           "https://api.ftcscout.org/graphql",
		Season:           2025,
		HTTPTimeoutMS:    30_000,
		HTTPRetryMax:     3,
		FetchConcurrency: 8,
		RateLimit:        20,
		CacheTTLSeconds:  7200,
		MatchesPerTeam:   6,
		MaxRetries:       50,
		Trials:           100,
		TrialWorkers:     runtime.NumCPU(),
		TrendAlpha:       0.5,
		AllowedOrigins:   "*",
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MatchesPerTeam < 1:
		return fmt.Errorf("%w: matches_per_team must be positive", ErrInvalidConfig)
	case c.Trials < 1:
		return fmt.Errorf("%w: trials must be positive", ErrInvalidConfig)
	case c.MaxRetries < 1:
		return fmt.Errorf("%w: max_retries must be positive", ErrInvalidConfig)
	case c.TrialWorkers < 1:
		return fmt.Errorf("%w: trial_workers must be positive", ErrInvalidConfig)
	case !(c.TrendAlpha >= 0 && c.TrendAlpha <= MaxTrendAlpha):
		return fmt.Errorf("%w: trend_alpha must be within [0,%g]", ErrInvalidConfig, MaxTrendAlpha)
	case c.HTTPRetryMax < 0:
		return fmt.Errorf("%w: http_retry_max must not be negative", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}

// HTTPTimeout returns the statistics API timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// CacheTTL returns the report cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Origins splits AllowedOrigins into its entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
