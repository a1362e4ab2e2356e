package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tandemhq/tandem/adapter"
)

func TestNextDelaySchedule(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    8 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 8 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := p.NextDelay(tt.attempt, nil); got != tt.want {
			t.Errorf("NextDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestNextDelayJitterBounded(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    8 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}

	for i := 0; i < 100; i++ {
		got := p.NextDelay(1, nil)
		if got < time.Second || got >= time.Second+250*time.Millisecond {
			t.Fatalf("NextDelay(1) = %s, want [1s, 1.25s)", got)
		}
	}
}

func TestNextDelayRetryAfterOverride(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    8 * time.Second,
	}

	// A longer platform hint wins over the computed backoff.
	err := &adapter.RateLimitedError{Platform: "slack", RetryAfter: 5 * time.Second}
	if got := p.NextDelay(1, err); got != 5*time.Second {
		t.Errorf("NextDelay(1, rate limited 5s) = %s, want 5s", got)
	}

	// A shorter hint does not shrink the backoff.
	err = &adapter.RateLimitedError{Platform: "slack", RetryAfter: time.Second}
	if got := p.NextDelay(3, err); got != 4*time.Second {
		t.Errorf("NextDelay(3, rate limited 1s) = %s, want 4s", got)
	}
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Factor:      2,
		MaxDelay:    4 * time.Millisecond,
	}
}

func TestExecuteRetriesTransient(t *testing.T) {
	calls := 0
	attempts, err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &adapter.TransientError{Platform: "slack", StatusCode: 502}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", attempts, calls)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	calls := 0
	authErr := &adapter.AuthError{Platform: "slack", Message: "invalid_auth"}
	attempts, err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		return authErr
	})
	if !errors.Is(err, authErr) {
		t.Fatalf("Execute() = %v, want auth error", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 (no retry)", attempts, calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	calls := 0
	attempts, err := fastPolicy().Execute(context.Background(), func(context.Context) error {
		calls++
		return &adapter.TransientError{Platform: "slack", StatusCode: 500}
	})
	if err == nil {
		t.Fatal("Execute() = nil, want error after exhausting attempts")
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", attempts, calls)
	}
}

func TestExecuteHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Hour,
		Factor:      2,
		MaxDelay:    time.Hour,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Execute(ctx, func(context.Context) error {
			return &adapter.TransientError{Platform: "slack", StatusCode: 500}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() = %v, want context.Canceled", err)
		}
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Execute() did not return after context cancellation")
	}
}

func TestExecuteCancelKeepsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Hour,
		Factor:      2,
		MaxDelay:    time.Hour,
	}

	transient := &adapter.TransientError{Platform: "slack", StatusCode: 502}
	_, err := p.Execute(ctx, func(context.Context) error {
		return transient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() = %v, want context.Canceled", err)
	}

	// The failure that triggered the retry survives alongside the
	// cancellation so audit entries keep the real cause.
	var te *adapter.TransientError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() = %v, transient cause lost", err)
	}
	if te.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", te.StatusCode)
	}
}
