package moversapi

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	jperrors "github.com/JohnPlummer/jp-go-errors"
	"github.com/sony/gobreaker/v2"
)

// breakerRegistry holds one circuit breaker per endpoint identity, created
// lazily. A single failure opens the breaker for the configured cooldown;
// after the cooldown one trial request is let through, and its outcome either
// closes the breaker or re-arms it.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	cooldown time.Duration
	logger   *slog.Logger
	metrics  *Metrics
}

func newBreakerRegistry(cooldown time.Duration, logger *slog.Logger, metrics *Metrics) *breakerRegistry {
	return &breakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
		cooldown: cooldown,
		logger:   logger,
		metrics:  metrics,
	}
}

func (r *breakerRegistry) get(key string) *gobreaker.CircuitBreaker[[]byte] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[key]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     r.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("endpoint circuit breaker state changed",
				"endpoint", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !shouldTrip(err)
		},
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](settings)
	r.breakers[key] = cb
	return cb
}

// Tripped reports whether the breaker for key is currently rejecting
// requests.
func (r *breakerRegistry) Tripped(key string) bool {
	return r.get(key).State() == gobreaker.StateOpen
}

// Execute runs fn through the endpoint's breaker. Open-state rejections are
// wrapped so callers can classify them separately from real network failures.
func (r *breakerRegistry) Execute(key string, fn func() ([]byte, error)) ([]byte, error) {
	cb := r.get(key)

	resp, err := cb.Execute(fn)
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			r.metrics.breakerReject()
			r.logger.Warn("circuit breaker is open, request rejected",
				"endpoint", key,
				"counts", cb.Counts())
			return nil, jperrors.NewCircuitBreakerError(
				"request rejected",
				key,
				"open",
				jperrors.WithCause(err),
			)
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			r.metrics.breakerReject()
			r.logger.Debug("circuit breaker half-open, trial slot taken",
				"endpoint", key)
			return nil, jperrors.NewCircuitBreakerError(
				"too many requests in half-open state",
				key,
				"half-open",
				jperrors.WithCause(err),
			)
		}
		return nil, err
	}
	return resp, nil
}

// rejectionError builds the wrapped open-state rejection without running
// anything through the breaker, for the fast-path check before cache and
// dedup.
func (r *breakerRegistry) rejectionError(key string) error {
	r.metrics.breakerReject()
	r.logger.Warn("circuit breaker is open, request rejected",
		"endpoint", key,
		"counts", r.get(key).Counts())
	return jperrors.NewCircuitBreakerError(
		"request rejected",
		key,
		"open",
		jperrors.WithCause(gobreaker.ErrOpenState),
	)
}

// Reset discards all breaker state, letting every endpoint through again
// immediately. Used by the explicit UI-driven reset.
func (r *breakerRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = make(map[string]*gobreaker.CircuitBreaker[[]byte])
}

// isBreakerRejection reports whether err is a local circuit-breaker
// rejection rather than a real network failure.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
