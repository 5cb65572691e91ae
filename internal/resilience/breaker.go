package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the circuit breaker lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker is a per-provider circuit breaker. It starts closed, opens after
// FailureThreshold consecutive failures, admits a single trial call after
// RecoveryTimeout, and closes again after SuccessThreshold consecutive
// trial successes. A trial failure reopens it and resets the recovery
// timer. Safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	lastFailureAt time.Time
	openedAt      time.Time
	trialInFlight bool

	now func() time.Time // injectable for tests
}

// Snapshot is a read-only view of breaker state for stats reporting.
type Snapshot struct {
	Name          string    `json:"name"`
	State         string    `json:"state"`
	Failures      int       `json:"failure_count"`
	LastFailureAt time.Time `json:"last_failure_at,omitempty"`
	OpenedAt      time.Time `json:"opened_at,omitempty"`
}

// NewBreaker creates a closed breaker for the named provider.
func NewBreaker(name string, failureThreshold, successThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
	}
}

// Call runs fn under breaker protection. While the breaker is open and the
// recovery timeout has not elapsed, Call returns ErrCircuitOpen without
// invoking fn. Retries belong inside fn: one Call records at most one
// failure regardless of how many attempts fn makes internally.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err == nil)
	return err
}

// admit decides whether a call may proceed and transitions open breakers
// to half-open when the recovery window has passed.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.recoveryTimeout {
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.successes = 0
		b.trialInFlight = true
		return nil
	default: // StateHalfOpen: exactly one trial call at a time
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.trialInFlight = false
		if ok {
			b.successes++
			if b.successes >= b.successThreshold {
				b.state = StateClosed
				b.failures = 0
			}
			return
		}
		b.failures++
		b.lastFailureAt = b.now()
		b.state = StateOpen
		b.openedAt = b.now()
	case StateClosed:
		if ok {
			b.failures = 0
			return
		}
		b.failures++
		b.lastFailureAt = b.now()
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
}

// State returns the current lifecycle state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a copy of the breaker state for reporting.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:          b.name,
		State:         b.state.String(),
		Failures:      b.failures,
		LastFailureAt: b.lastFailureAt,
		OpenedAt:      b.openedAt,
	}
}
