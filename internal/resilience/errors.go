// Package resilience wraps outbound provider calls with a circuit breaker
// and a retry policy. Each provider owns one Breaker instance; claim-level
// code never touches breaker state directly.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrCircuitOpen is returned without attempting a network call while a
// breaker is open and its recovery timeout has not elapsed.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ErrProviderTimeout marks a provider call that exceeded its deadline.
var ErrProviderTimeout = errors.New("provider timed out")

// ProviderError describes a failed provider HTTP call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

// Transient reports whether the failure is worth retrying: HTTP 429 and
// 5xx responses are transient, other 4xx are not.
func (e *ProviderError) Transient() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// IsRetryable classifies an error as transient. Timeouts, 5xx, and 429
// are retryable; non-retryable 4xx and programming errors fail fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
