package moversapi

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the structured logger used by every subsystem.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, err := moversapi.New(cfg, moversapi.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. The caller is
// responsible for its timeout; redirects are still surfaced as responses so
// the client can classify them.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithConsentStore wires the externally owned consent state. Without one the
// client assumes consent, which suits server-side deployments with no
// per-user preference UI.
func WithConsentStore(store ConsentStore) Option {
	return func(c *Client) {
		c.consent = store
	}
}

// WithTokenStore wires persistent bearer-token storage for the auth
// endpoints.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithSessionStore enables the session-scoped navigation cache.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.session = store
	}
}

// WithPolicies replaces the built-in endpoint policy table, typically with
// the result of LoadPolicies.
func WithPolicies(table PolicyTable) Option {
	return func(c *Client) {
		c.policies = table
	}
}

// WithMetrics registers the client's Prometheus metrics against reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetrics(reg)
	}
}
