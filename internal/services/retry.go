package services

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
)

// RetryPolicy is a reusable retry loop for outbound provider calls: bounded
// attempts, a delay function, and a predicate deciding which errors are
// worth retrying. Anything non-retryable fails the call immediately.
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
	Retryable   func(error) bool
}

// Do runs op until it succeeds, a non-retryable error occurs, attempts run
// out, or ctx is cancelled.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := time.Duration(0)
		if p.Delay != nil {
			delay = p.Delay(attempt)
		}
		logger.Warnf("[Retry] %s attempt %d/%d failed: %v, retrying in %v", name, attempt, p.MaxAttempts, lastErr, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// FixedBackoff returns a delay function growing linearly from base.
func FixedBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// IsTimeout reports whether err is a timeout-class failure. Only these are
// retryable; every other provider failure is immediately fatal to the request.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// ProviderRetryPolicy is the default policy for OAuth, payment, storage and
// email calls: 3 attempts, linear backoff, timeouts only.
func ProviderRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       FixedBackoff(500 * time.Millisecond),
		Retryable:   IsTimeout,
	}
}
