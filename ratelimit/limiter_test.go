package ratelimit

import (
	"testing"
	"time"
)

func TestAllowUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 1000; i++ {
		if !l.Allow("rule-a", 0) {
			t.Fatal("unlimited rule denied")
		}
	}
}

func TestAllowExhaustsBucket(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		if !l.Allow("rule-a", 5) {
			t.Fatalf("execution %d denied before cap reached", i+1)
		}
	}
	if l.Allow("rule-a", 5) {
		t.Error("execution allowed past hourly cap")
	}
}

func TestRefillOverTime(t *testing.T) {
	now := time.Now()
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("rule-a", 2) {
			t.Fatal("denied before cap")
		}
	}
	if l.Allow("rule-a", 2) {
		t.Fatal("allowed past cap")
	}

	// Half an hour restores one token at 2/hour.
	now = now.Add(30 * time.Minute)
	if !l.Allow("rule-a", 2) {
		t.Error("denied after refill window elapsed")
	}
	if l.Allow("rule-a", 2) {
		t.Error("allowed more than the refilled amount")
	}
}

func TestBucketsIsolatedPerRule(t *testing.T) {
	l := New()

	if !l.Allow("rule-a", 1) {
		t.Fatal("rule-a denied")
	}
	if l.Allow("rule-a", 1) {
		t.Fatal("rule-a allowed past cap")
	}
	if !l.Allow("rule-b", 1) {
		t.Error("rule-b throttled by rule-a's bucket")
	}
}

func TestReset(t *testing.T) {
	l := New()

	l.Allow("rule-a", 1)
	if l.Allow("rule-a", 1) {
		t.Fatal("allowed past cap")
	}

	l.Reset("rule-a")
	if !l.Allow("rule-a", 1) {
		t.Error("denied after reset")
	}
}
