package resilience

import (
	"context"
	"time"
)

// Retryer retries transient failures with exponential backoff (1s, 2s, 4s
// by default). Non-retryable failures return immediately. A Retryer is
// meant to run inside a single breaker-guarded call so that the breaker
// records one failure per guarded call, not one per attempt.
type Retryer struct {
	maxAttempts int
	baseBackoff time.Duration
	sleep       func(time.Duration) // injectable for tests
}

// NewRetryer creates a retryer with the given attempt cap and base backoff.
func NewRetryer(maxAttempts int, baseBackoff time.Duration) *Retryer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		sleep:       time.Sleep,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// cap is reached, or ctx is cancelled.
func (r *Retryer) Do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn(ctx)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt < r.maxAttempts-1 {
			backoff := r.baseBackoff << uint(attempt)
			r.sleep(backoff)
		}
	}
	return err
}
