package moversapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// Sentinel errors for locally synthesized rejections. These never correspond
// to a real network attempt and are excluded from retry and breaker
// accounting.
var (
	// ErrConsentRequired is returned when the consent gate has not been
	// granted. Callers must treat this as an expected, user-controlled state
	// rather than a backend fault; it never triggers a failure notification.
	ErrConsentRequired = errors.New("moversapi: consent not granted")

	// ErrGloballyBlocked is returned while the global request block is
	// active after a failed health probe.
	ErrGloballyBlocked = errors.New("moversapi: requests globally blocked")

	// ErrBackendUnavailable is returned by the health gate while the backend
	// is known to be down and the cooldown has not elapsed.
	ErrBackendUnavailable = errors.New("moversapi: backend unavailable")
)

// APIError is the uniform failure shape for all backend-originated errors.
// A Code of 0 denotes a transport-level connection failure. Structured 503
// bodies are parsed into this type so callers can branch on a single shape.
type APIError struct {
	Code               int
	Message            string
	Endpoint           string
	ServiceUnavailable bool
	cause              error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("moversapi: %s %s (status %d)", e.Endpoint, e.Message, e.Code)
	}
	return fmt.Sprintf("moversapi: %s failed with status %d", e.Endpoint, e.Code)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *APIError) Unwrap() error { return e.cause }

// StatusCode returns the HTTP status code, or 0 for connection failures.
func (e *APIError) StatusCode() int { return e.Code }

// newConnectionError normalizes a transport failure into the synthetic
// status-0, service-unavailable shape.
func newConnectionError(endpoint string, cause error) *APIError {
	return &APIError{
		Code:               0,
		Message:            cause.Error(),
		Endpoint:           endpoint,
		ServiceUnavailable: true,
		cause:              cause,
	}
}

// newStatusError builds an APIError from an HTTP status and optional
// structured body. 503s and redirect anomalies are flagged service-unavailable:
// a redirect from an API endpoint indicates backend misconfiguration, not a
// client error.
func newStatusError(endpoint string, status int, body *errorBody) *APIError {
	apiErr := &APIError{
		Code:               status,
		Endpoint:           endpoint,
		ServiceUnavailable: status == 503 || (status >= 300 && status < 400),
	}
	if body != nil {
		apiErr.Message = body.Message
		if body.StatusCode != 0 {
			apiErr.Code = body.StatusCode
		}
		if body.StatusCode == 503 {
			apiErr.ServiceUnavailable = true
		}
	}
	return apiErr
}

// IsServiceUnavailable reports whether err represents the backend being down,
// whatever the underlying cause (503, connection failure, health gate,
// global block).
func IsServiceUnavailable(err error) bool {
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrGloballyBlocked) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ServiceUnavailable
	}
	return false
}

// IsConsentBlocked reports whether err is a consent-gate rejection.
func IsConsentBlocked(err error) bool {
	return errors.Is(err, ErrConsentRequired)
}

// retryableStatuses are the HTTP statuses retried for critical endpoints,
// plus the synthetic status 0 for connection failures.
var retryableStatuses = []int{0, 502, 503, 504}

// transientMessages are transport error substrings treated as retryable.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"network is unreachable",
	"no such host",
	"i/o timeout",
	"unexpected EOF",
}

// isRetryable reports whether a failure is worth retrying. Caller
// cancellation is terminal. A deadline is not: each attempt runs under its
// own per-request timeout, so an exceeded deadline is the timeout shape of a
// slow backend. The retry loop separately stops when the caller's own
// context is done.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pkgerrors.IsTimeout(err) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return containsStatus(retryableStatuses, apiErr.Code)
	}

	msg := strings.ToLower(err.Error())
	for _, s := range transientMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// shouldTrip reports whether a failure counts against the endpoint's circuit
// breaker. Locally synthesized rejections never trip: no network attempt was
// made, so they say nothing about the endpoint.
func shouldTrip(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConsentRequired) ||
		errors.Is(err, ErrGloballyBlocked) ||
		errors.Is(err, ErrBackendUnavailable) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// containsStatus checks if a status code is in the list.
func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
