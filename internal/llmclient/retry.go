// Package llmclient holds the outbound REST clients for the embedding
// and completion services: plain, configurable HTTP endpoints rather
// than a single cloud vendor's SDK.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrRateLimited is returned when all retries are exhausted on a retryable
// error (HTTP 429/503, or a rate-limit/quota message).
var ErrRateLimited = fmt.Errorf("the embedding/completion service is experiencing high demand, try again shortly")

var retryConfig = struct {
	delays  []time.Duration
	ceiling time.Duration
}{
	delays:  []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond, 2000 * time.Millisecond},
	ceiling: 10 * time.Second,
}

// statusError carries the upstream HTTP status code alongside the response
// body, so retry decisions can be keyed off the real status rather than a
// formatted error string.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// newStatusError wraps an upstream HTTP status/body pair for a retryable
// response so withRetry can recover the status via errors.As.
func newStatusError(status int, body []byte) error {
	return &statusError{status: status, body: string(body)}
}

// isRetryableError reports whether err warrants a retry: a *statusError
// carrying a retryable HTTP status, or (for errors that never passed
// through a status code, e.g. transport-level failures) a recognisable
// rate-limit/quota message.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return isRetryableStatus(se.status)
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit")
}

// isRetryableStatus reports whether an HTTP status code warrants a retry.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// withRetry executes fn up to len(retryConfig.delays)+1 times, retrying on
// 429/503 and rate-limit/quota errors. Backoff 500ms -> 1s -> 2s, capped at a 10s
// ceiling.
func withRetry[T any](ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil {
		return result, nil
	}
	if !isRetryableError(err) {
		return result, err
	}

	for i, delay := range retryConfig.delays {
		if delay > retryConfig.ceiling {
			delay = retryConfig.ceiling
		}

		slog.Warn("[LLMCLIENT] rate limited, retrying",
			"operation", operation,
			"attempt", i+2,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("%s: context cancelled during retry: %w", operation, ctx.Err())
		case <-time.After(delay):
		}

		result, err = fn()
		if err == nil {
			slog.Info("[LLMCLIENT] retry succeeded", "operation", operation, "attempt", i+2)
			return result, nil
		}
		if !isRetryableError(err) {
			return result, err
		}
	}

	slog.Error("[LLMCLIENT] retries exhausted", "operation", operation, "attempts", len(retryConfig.delays)+1)
	var zero T
	return zero, ErrRateLimited
}
