package llm

import (
	"context"
	"math/rand"
	"time"
)

// BackoffPolicy controls retry behavior for throttled model calls.
// The delay before attempt n (0-based) is Base * 2^n plus up to one extra
// Base of jitter.
type BackoffPolicy struct {
	MaxAttempts int
	Base        time.Duration
}

// DefaultBackoff matches the service's production settings: three attempts
// with second-scale exponential delays.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{MaxAttempts: 3, Base: time.Second}
}

// delay returns the sleep duration after a failed attempt (0-based).
func (p BackoffPolicy) delay(attempt int) time.Duration {
	d := p.Base << uint(attempt)
	jitter := time.Duration(rand.Int63n(int64(p.Base)))
	return d + jitter
}

// WithRetry runs fn, retrying on ThrottledError with exponential backoff.
// Non-throttle errors return immediately. When all attempts are throttled the
// final ThrottledError is returned so callers can degrade gracefully.
// The wait is cut short if ctx is cancelled.
func WithRetry(ctx context.Context, policy BackoffPolicy, fn func() (string, error)) (string, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if policy.Base <= 0 {
		policy.Base = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsThrottled(err) {
			return "", err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
