package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tandemhq/tandem/adapter"
)

// RetryPolicy bounds how action execution retries. Only transient and
// rate-limit failures are retried; auth, validation, not-found, and
// unsupported-action errors fail immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of execution attempts.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Factor multiplies the delay after each attempt.
	Factor float64

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// MaxJitter is the upper bound of the random jitter added to each
	// delay, spreading retries from concurrent dispatches.
	MaxJitter time.Duration
}

// DefaultRetryPolicy retries twice after the initial attempt: 1s, then 2s,
// capped at 8s, with up to 250ms of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    8 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}
}

// NextDelay computes the wait before the given retry. attempt counts the
// attempts already made, so the first retry passes 1. A platform-advised
// Retry-After on the error overrides the computed backoff when it is longer.
func (p RetryPolicy) NextDelay(attempt int, err error) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Factor)
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if hint, ok := adapter.RetryAfterHint(err); ok && hint > delay {
		delay = hint
	}

	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}

// Execute runs fn up to MaxAttempts times, sleeping between attempts. It
// returns the last error and the number of attempts made. Non-retryable
// errors and context cancellation stop the loop early.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || !adapter.Retryable(err) || attempt >= p.MaxAttempts {
			return attempt, err
		}

		select {
		case <-ctx.Done():
			// Keep the failure that was about to be retried alongside
			// the cancellation.
			return attempt, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-time.After(p.NextDelay(attempt, err)):
		}
	}
}
