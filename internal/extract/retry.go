package extract

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// backoff is swapped out by tests.
var backoff = Backoff

// withRetry calls fn up to MaxRetries times while it fails with a retryable error.
func withRetry[T any](ctx context.Context, onRetry func(attempt int, err error), fn func() (T, error)) (T, error) {
	var (
		out     T
		lastErr error
	)
	for attempt := range MaxRetries {
		out, lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return out, lastErr
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, lastErr
}
