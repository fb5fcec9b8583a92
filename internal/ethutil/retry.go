package ethutil

import (
	"context"
	"strings"
	"time"
)

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// IsRateLimitError reports whether err looks like a provider throttle
// (HTTP 429 or the -32005 "limit exceeded" code).
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// RetryRateLimited calls fn up to three times, doubling a 200ms backoff
// between tries. Only rate-limit errors are retried.
func RetryRateLimited[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := retryBackoff
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRateLimitError(err) {
			return zero, err
		}
		if attempt < retryAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return zero, lastErr
}
