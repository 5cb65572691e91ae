package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryer_RetriesTransient(t *testing.T) {
	r := NewRetryer(3, time.Second)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &ProviderError{Provider: "web", StatusCode: 503, Message: "unavailable"}
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("expected backoff [1s 2s], got %v", slept)
	}
}

func TestRetryer_NoRetryOnClientError(t *testing.T) {
	r := NewRetryer(3, time.Second)
	r.sleep = func(time.Duration) { t.Error("should not sleep for non-retryable error") }

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &ProviderError{Provider: "web", StatusCode: 404, Message: "not found"}
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt for 404, got %d", calls)
	}
}

func TestRetryer_RetriesRateLimit(t *testing.T) {
	r := NewRetryer(3, time.Millisecond)
	r.sleep = func(time.Duration) {}

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &ProviderError{Provider: "web", StatusCode: 429, Message: "slow down"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected recovery after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryer_StopsOnCancelledContext(t *testing.T) {
	r := NewRetryer(3, time.Millisecond)
	r.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return ErrProviderTimeout
	})

	if !errors.Is(err, context.Canceled) && calls != 1 {
		t.Errorf("expected cancellation to stop retries, got err=%v calls=%d", err, calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout sentinel", ErrProviderTimeout, true},
		{"deadline", context.DeadlineExceeded, true},
		{"500", &ProviderError{StatusCode: 500}, true},
		{"429", &ProviderError{StatusCode: 429}, true},
		{"403", &ProviderError{StatusCode: 403}, false},
		{"400", &ProviderError{StatusCode: 400}, false},
		{"circuit open", ErrCircuitOpen, false},
		{"plain", errors.New("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
