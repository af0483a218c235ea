package moversapi

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sethvargo/go-retry"
)

// retrier applies exponential backoff with jitter to critical endpoints.
// Non-critical endpoints get a single attempt; their callers degrade
// gracefully instead of holding a page load hostage.
type retrier struct {
	baseDelay  time.Duration
	maxDelay   time.Duration
	jitter     time.Duration
	maxRetries int
	logger     *slog.Logger
	metrics    *Metrics
}

func newRetrier(base, max, jitter time.Duration, maxRetries int, logger *slog.Logger, metrics *Metrics) *retrier {
	return &retrier{
		baseDelay:  base,
		maxDelay:   max,
		jitter:     jitter,
		maxRetries: maxRetries,
		logger:     logger,
		metrics:    metrics,
	}
}

// Do runs fn, retrying retryable failures when the endpoint policy marks the
// endpoint as both critical and retryable. Delays double per attempt, capped
// at the configured maximum, with a random additive jitter in [0, jitter) on
// top so the n-th delay lands in [base*2^n, base*2^n + jitter). Non-retryable
// errors and exhausted retries propagate to the caller unchanged.
func (r *retrier) Do(ctx context.Context, key string, policy Policy, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	if !policy.Critical || !policy.Retryable || r.maxRetries <= 0 {
		return fn(ctx)
	}

	var response []byte
	attempts := 0

	exponential := retry.WithCappedDuration(r.maxDelay, retry.NewExponential(r.baseDelay))
	backoff := retry.WithMaxRetries(
		uint64(r.maxRetries), // #nosec G115 - validated non-negative in config
		retry.BackoffFunc(func() (time.Duration, bool) {
			next, stop := exponential.Next()
			if stop {
				return 0, true
			}
			// Jitter is additive only, so a delay never undershoots the
			// exponential floor.
			if r.jitter > 0 {
				next += time.Duration(rand.Int63n(int64(r.jitter)))
			}
			return next, false
		}),
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			r.metrics.retry()
		}

		resp, err := fn(ctx)
		if err == nil {
			if attempts > 1 {
				r.logger.Info("request succeeded after retry",
					"endpoint", key,
					"attempts", attempts)
			}
			response = resp
			return nil
		}

		// The caller's own context being done is terminal; a per-attempt
		// deadline is not, the next attempt gets a fresh one.
		if ctx.Err() != nil {
			return err
		}

		// Breaker rejections are local; retrying them just burns the
		// backoff budget against a circuit that will not close mid-loop.
		if isBreakerRejection(err) || !isRetryable(err) {
			return err
		}

		r.logger.Debug("retrying request after delay",
			"endpoint", key,
			"attempt", attempts,
			"error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		r.logger.Warn("request failed after retries",
			"endpoint", key,
			"attempts", attempts,
			"error", err)
		return nil, err
	}
	return response, nil
}
