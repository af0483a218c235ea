package moversapi

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variable chains probed by ResolveConfig, highest priority
// first: runtime overrides, build-injected values, global fallbacks.
var (
	baseURLVars = []string{"MOVERSAPI_BASE_URL", "APP_API_URL", "API_URL"}
	apiKeyVars  = []string{"MOVERSAPI_API_KEY", "APP_API_KEY", "API_KEY"}
)

// defaultBaseURL is used when no environment source supplies a base URL, so
// the client is always constructible in local development.
const defaultBaseURL = "http://localhost:8080"

// Config holds the resolved client configuration.
type Config struct {
	// BaseURL is the backend base URL, always fully qualified.
	BaseURL string `validate:"required,url"`

	// APIKey is sent as the x-api-key header on every request.
	APIKey string

	// RequestTimeout is the hard per-request timeout. Retry and dedup
	// bounds alone cannot protect callers from a transport that hangs
	// indefinitely, so every request gets a deadline.
	RequestTimeout time.Duration `validate:"min=0"`

	// HealthCooldown bounds how often the health probe runs while the
	// backend is considered down.
	HealthCooldown time.Duration `validate:"min=0"`

	// BlockCooldown is the global request block window armed when a health
	// probe fails.
	BlockCooldown time.Duration `validate:"min=0"`

	// BreakerCooldown is the per-endpoint circuit breaker open period.
	BreakerCooldown time.Duration `validate:"min=0"`

	// RetryBaseDelay and RetryMaxDelay bound the exponential backoff for
	// critical endpoints; MaxRetries is the number of retries after the
	// initial attempt. RetryJitter is the upper bound of the random additive
	// delay applied on top of each backoff step.
	RetryBaseDelay time.Duration `validate:"min=0"`
	RetryMaxDelay  time.Duration `validate:"min=0"`
	RetryJitter    time.Duration `validate:"min=0"`
	MaxRetries     int           `validate:"min=0,max=10"`

	// DedupeTimeout force-clears a pending-request entry whose call never
	// settles.
	DedupeTimeout time.Duration `validate:"min=0"`

	// NotifyCooldown suppresses repeat failure notifications after one is
	// shown.
	NotifyCooldown time.Duration `validate:"min=0"`

	// SessionFreshness is the freshness window for session-cached
	// navigation data.
	SessionFreshness time.Duration `validate:"min=0"`
}

// DefaultConfig returns the built-in configuration values.
func DefaultConfig() Config {
	return Config{
		BaseURL:          defaultBaseURL,
		RequestTimeout:   15 * time.Second,
		HealthCooldown:   30 * time.Second,
		BlockCooldown:    30 * time.Second,
		BreakerCooldown:  60 * time.Second,
		RetryBaseDelay:   time.Second,
		RetryMaxDelay:    10 * time.Second,
		RetryJitter:      time.Second,
		MaxRetries:       3,
		DedupeTimeout:    30 * time.Second,
		NotifyCooldown:   5 * time.Second,
		SessionFreshness: 5 * time.Minute,
	}
}

// ResolveConfig builds a Config from the environment: for each setting the
// first non-empty variable in its chain wins, falling back to defaults. A
// bare host is normalized by prepending https.
func ResolveConfig() Config {
	cfg := DefaultConfig()

	if raw := lookupFirst(baseURLVars); raw != "" {
		cfg.BaseURL = normalizeBaseURL(raw)
	}
	cfg.APIKey = lookupFirst(apiKeyVars)

	cfg.RequestTimeout = durationFromEnv("MOVERSAPI_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.HealthCooldown = durationFromEnv("MOVERSAPI_HEALTH_COOLDOWN", cfg.HealthCooldown)
	cfg.BlockCooldown = durationFromEnv("MOVERSAPI_BLOCK_COOLDOWN", cfg.BlockCooldown)
	cfg.BreakerCooldown = durationFromEnv("MOVERSAPI_BREAKER_COOLDOWN", cfg.BreakerCooldown)
	cfg.RetryBaseDelay = durationFromEnv("MOVERSAPI_RETRY_BASE_DELAY", cfg.RetryBaseDelay)
	cfg.RetryMaxDelay = durationFromEnv("MOVERSAPI_RETRY_MAX_DELAY", cfg.RetryMaxDelay)
	cfg.RetryJitter = durationFromEnv("MOVERSAPI_RETRY_JITTER", cfg.RetryJitter)
	cfg.MaxRetries = intFromEnv("MOVERSAPI_MAX_RETRIES", cfg.MaxRetries)

	return cfg
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("invalid config: retry max delay %s below base delay %s",
			c.RetryMaxDelay, c.RetryBaseDelay)
	}
	return nil
}

// normalizeBaseURL makes a bare host usable by prepending a default scheme
// and stripping any trailing slash.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return defaultBaseURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

func lookupFirst(names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func durationFromEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func intFromEnv(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
