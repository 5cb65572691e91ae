package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(10, -1)
	if l.defaultBurst != 4 {
		t.Errorf("expected default burst 4 for non-positive input, got %d", l.defaultBurst)
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("web") {
		t.Error("first request for web should be allowed")
	}
	if l.Allow("web") {
		t.Error("second immediate request for web should be limited")
	}
	// A different provider has its own bucket.
	if !l.Allow("ons") {
		t.Error("first request for ons should be allowed")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "factcheck"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitURL(t *testing.T) {
	l := NewLimiter(100, 2)
	ctx := context.Background()

	if err := l.WaitURL(ctx, "https://example.com/page"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if _, ok := l.limiters["example.com"]; !ok {
		t.Error("expected limiter keyed by host")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetRate("ons", 100, 10)

	for i := 0; i < 5; i++ {
		if !l.Allow("ons") {
			t.Fatalf("request %d should be allowed with burst 10", i)
		}
	}
}

func TestLimiter_WaitCancellation(t *testing.T) {
	l := NewLimiter(0.1, 1) // exhaust the single token, then block
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = l.Wait(context.Background(), "slow")
	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("expected context error while waiting for a depleted bucket")
	}
}
