// Package moversapi is the resilient client for the Harborline Moving
// backend REST API. It layers a consent gate, health gate with global
// request block, per-endpoint circuit breaking, request deduplication,
// retry with exponential backoff, and a short-TTL response cache over plain
// HTTP calls, and publishes failures to a notification channel the UI layer
// subscribes to.
package moversapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client is the process-wide API client. Construct one at startup and share
// it; all state (caches, breakers, gate, notifier) lives on the instance.
type Client struct {
	cfg      Config
	policies PolicyTable

	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics

	cache    *responseCache
	dedupe   *deduper
	breakers *breakerRegistry
	gate     *healthGate
	retrier  *retrier
	notifier *FailureNotifier

	consent ConsentStore
	tokens  TokenStore
	session SessionStore
}

// New builds a Client from the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		consent: StaticConsent(ConsentGranted),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.policies == nil {
		c.policies = DefaultPolicies()
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: cfg.RequestTimeout,
			// Redirects from an API endpoint indicate backend
			// misconfiguration; surface them for classification instead of
			// following them.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	cache, err := newResponseCache(c.logger, c.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build response cache: %w", err)
	}
	c.cache = cache
	c.dedupe = newDeduper(cfg.DedupeTimeout, c.metrics)
	c.breakers = newBreakerRegistry(cfg.BreakerCooldown, c.logger, c.metrics)
	c.gate = newHealthGate(cfg.HealthCooldown, cfg.BlockCooldown, c.logger, c.metrics)
	c.retrier = newRetrier(cfg.RetryBaseDelay, cfg.RetryMaxDelay, cfg.RetryJitter, cfg.MaxRetries, c.logger, c.metrics)
	c.notifier = NewFailureNotifier(cfg.NotifyCooldown, c.logger, c.metrics)

	return c, nil
}

// Notifier returns the failure-notification channel for the UI layer.
func (c *Client) Notifier() *FailureNotifier {
	return c.notifier
}

// GateStatus returns a snapshot of the health gate and global block.
func (c *Client) GateStatus() GateStatus {
	return c.gate.Status()
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// Reset clears health gate, global block and circuit breaker state without
// waiting for cooldowns, and hides any visible failure notice. The UI
// invokes this on user retry or navigation.
func (c *Client) Reset() {
	c.gate.Reset()
	c.breakers.Reset()
	c.notifier.Hide()
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.cache.Close()
}

// Health probes the backend health endpoint and updates the health gate.
// The probe bypasses the consent gate and circuit breakers but respects its
// own cooldown: while the backend is known down, at most one probe runs per
// cooldown window.
func (c *Client) Health(ctx context.Context) (ServiceHealth, error) {
	if !c.gate.ProbeAllowed() {
		return ServiceHealth{}, ErrBackendUnavailable
	}

	data, err := c.do(ctx, http.MethodGet, EndpointHealth, nil, false)
	if err != nil {
		return ServiceHealth{}, err
	}

	var health ServiceHealth
	if err := json.Unmarshal(data, &health); err != nil {
		return ServiceHealth{}, fmt.Errorf("failed to decode health response: %w", err)
	}
	return health, nil
}

// Navigation fetches the site navigation tree. The session-scoped cache is
// consulted first; a live result refreshes it.
func (c *Client) Navigation(ctx context.Context) ([]NavItem, error) {
	if c.session != nil {
		if data, ok := c.session.Get(ctx, sessionNavKey); ok {
			var items []NavItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
		}
	}

	data, err := c.do(ctx, http.MethodGet, EndpointNav, nil, false)
	if err != nil {
		return nil, err
	}

	var items []NavItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode navigation: %w", err)
	}
	if c.session != nil {
		c.session.Set(ctx, sessionNavKey, data, c.cfg.SessionFreshness)
	}
	return items, nil
}

// Services fetches the moving-service catalog.
func (c *Client) Services(ctx context.Context) ([]ServiceOffering, error) {
	return getJSON[[]ServiceOffering](ctx, c, EndpointServices)
}

// About fetches the company-profile copy.
func (c *Client) About(ctx context.Context) (AboutContent, error) {
	return getJSON[AboutContent](ctx, c, EndpointAbout)
}

// Contact fetches the company contact channels.
func (c *Client) Contact(ctx context.Context) (ContactInfo, error) {
	return getJSON[ContactInfo](ctx, c, EndpointContact)
}

// Testimonials fetches customer reviews.
func (c *Client) Testimonials(ctx context.Context) ([]Testimonial, error) {
	return getJSON[[]Testimonial](ctx, c, EndpointTestimonials)
}

// RecentMoves fetches the recent completed moves feed.
func (c *Client) RecentMoves(ctx context.Context) ([]RecentMove, error) {
	return getJSON[[]RecentMove](ctx, c, EndpointRecentMoves)
}

// RecentMovesTotal fetches the running count of completed moves.
func (c *Client) RecentMovesTotal(ctx context.Context) (RecentMovesTotal, error) {
	return getJSON[RecentMovesTotal](ctx, c, EndpointRecentMovesTotal)
}

// Locations fetches branch offices and service hubs.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	return getJSON[[]Location](ctx, c, EndpointLocations)
}

// Supplies fetches the packing-supply catalog.
func (c *Client) Supplies(ctx context.Context) ([]Supply, error) {
	return getJSON[[]Supply](ctx, c, EndpointSupplies)
}

// ServiceAreas fetches the regions the company serves.
func (c *Client) ServiceAreas(ctx context.Context) ([]ServiceArea, error) {
	return getJSON[[]ServiceArea](ctx, c, EndpointServiceAreas)
}

// AuthStatus reports whether the stored bearer token is accepted by the
// backend.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	data, err := c.do(ctx, http.MethodGet, EndpointAuthStatus, nil, true)
	if err != nil {
		return AuthStatus{}, err
	}
	var status AuthStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return AuthStatus{}, fmt.Errorf("failed to decode auth status: %w", err)
	}
	return status, nil
}

// Login exchanges credentials for a bearer token and persists it in the
// token store when one is configured.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("failed to encode login request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, EndpointAuthLogin, body, false)
	if err != nil {
		return LoginResponse{}, err
	}

	var grant LoginResponse
	if err := json.Unmarshal(data, &grant); err != nil {
		return LoginResponse{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	if c.tokens != nil && grant.Token != "" {
		if err := c.tokens.Save(grant.Token, grant.ExpiresAt); err != nil {
			c.logger.Error("failed to persist bearer token", "error", err)
		}
	}
	return grant, nil
}

// Logout invalidates the session server-side and clears the stored token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, EndpointAuthLogout, nil, true)
	if c.tokens != nil {
		if clearErr := c.tokens.Clear(); clearErr != nil {
			c.logger.Error("failed to clear bearer token", "error", clearErr)
		}
	}
	return err
}

// getJSON runs the standard pipeline for a GET endpoint and decodes the
// payload.
func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T

	data, err := c.do(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return out, nil
}

// do is the request pipeline: consent gate, health gate and global block,
// circuit breaker check, cache read, then deduplicated breaker-wrapped
// retried network call, cache write, and failure notification.
func (c *Client) do(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, error) {
	policy := c.policies.Lookup(path)
	key := endpointKey(method, path, body)
	isHealth := path == EndpointHealth

	if !isHealth {
		if c.consent == nil || c.consent.Decision() != ConsentGranted {
			c.metrics.consentReject()
			return nil, ErrConsentRequired
		}
		if err := c.gate.Allow(); err != nil {
			c.notifyFailure(path, err)
			return nil, err
		}
		if c.breakers.Tripped(key) {
			err := c.breakers.rejectionError(key)
			c.notifyFailure(path, err)
			return nil, err
		}
	}

	if method == http.MethodGet && policy.CacheTTL > 0 {
		if data, ok := c.cache.Get(key); ok {
			return data, nil
		}
	}

	execute := func() ([]byte, error) {
		return c.retrier.Do(ctx, key, policy, func(ctx context.Context) ([]byte, error) {
			return c.roundTrip(ctx, method, path, body, authed)
		})
	}

	var data []byte
	var err error
	if isHealth {
		data, err = c.dedupe.Do(key, execute)
	} else {
		data, err = c.dedupe.Do(key, func() ([]byte, error) {
			return c.breakers.Execute(key, execute)
		})
	}

	if err != nil {
		if isHealth {
			// A probe the caller canceled says nothing about the backend.
			if !errors.Is(err, context.Canceled) {
				c.gate.MarkUnhealthy()
			}
		} else {
			c.notifyFailure(path, err)
		}
		c.metrics.request(path, "error")
		return nil, err
	}

	if isHealth {
		c.gate.MarkHealthy()
	}
	if method == http.MethodGet && policy.CacheTTL > 0 {
		c.cache.Set(key, data, policy.CacheTTL)
	}
	c.metrics.request(path, "success")
	return data, nil
}

// roundTrip performs a single HTTP attempt with the hard per-request
// timeout and normalizes failures into the uniform error shape.
func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-api-key", c.cfg.APIKey)
	}
	if authed && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newConnectionError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, newConnectionError(path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}

	// 503s often carry a structured body; parse it into the uniform shape
	// rather than discarding the detail.
	var structured *errorBody
	var parsed errorBody
	if json.Unmarshal(payload, &parsed) == nil && parsed.Error {
		structured = &parsed
	}
	return nil, newStatusError(path, resp.StatusCode, structured)
}

// notifyFailure feeds the failure notifier, skipping consent rejections and
// caller cancellations: neither is a backend fault.
func (c *Client) notifyFailure(path string, err error) {
	if err == nil || IsConsentBlocked(err) || errors.Is(err, context.Canceled) {
		return
	}
	c.notifier.Show([]string{path}, IsServiceUnavailable(err), nil)
}
