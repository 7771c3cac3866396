// Package retry centralizes the transient-failure retry policy used by
// the capture loop for screenshots and element dumps.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do runs op up to attempts times with a constant delay between tries.
// It returns nil on the first success, the last error once attempts are
// exhausted, or the context error if ctx is cancelled mid-wait.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(op, b)
}

// Permanent marks an error as non-retryable; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
