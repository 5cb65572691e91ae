package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rmartin/veracity/internal/cache"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/resilience"
	"github.com/rmartin/veracity/internal/worker"
)

// Resilient wraps an adapter with the full outbound-call stack: rate
// limiter, TTL cache, circuit breaker, and retry policy, in that order.
// Cache lookups happen before any breaker-guarded network call; only
// successful responses are stored. One Resilient instance owns its
// provider's breaker and counters; claim-level code never mutates them.
type Resilient struct {
	inner   Provider
	breaker *resilience.Breaker
	retryer *resilience.Retryer
	store   cache.Cache // nil disables caching
	stats   *cache.Stats
	limiter *worker.Limiter
	timeout time.Duration // per-attempt deadline

	apiCalls atomic.Int64
}

// ResilientOptions configures the wrapping.
type ResilientOptions struct {
	Cache            cache.Cache
	Stats            *cache.Stats
	Limiter          *worker.Limiter
	FailureThreshold int
	SuccessThreshold int
	RecoveryTimeout  time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	CallTimeout      time.Duration
}

// Wrap builds the resilient decorator around an adapter.
func Wrap(p Provider, opts ResilientOptions) *Resilient {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resilient{
		inner:   p,
		breaker: resilience.NewBreaker(p.Name(), opts.FailureThreshold, opts.SuccessThreshold, opts.RecoveryTimeout),
		retryer: resilience.NewRetryer(opts.MaxRetries, opts.RetryBackoff),
		store:   opts.Cache,
		stats:   opts.Stats,
		limiter: opts.Limiter,
		timeout: timeout,
	}
}

func (r *Resilient) Name() string             { return r.inner.Name() }
func (r *Resilient) Kind() model.ProviderKind { return r.inner.Kind() }
func (r *Resilient) TTL() time.Duration       { return r.inner.TTL() }

func (r *Resilient) Matches(domainTag, jurisdiction string) bool {
	return r.inner.Matches(domainTag, jurisdiction)
}

// Search consults the cache, then runs the guarded call. Retries happen
// inside one breaker-guarded call so a flapping provider costs the
// breaker a single failure per Search.
func (r *Resilient) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	key := cache.Key(r.inner.Name(), claim.Text)

	if r.store != nil {
		if data, ok := r.store.Get(key); ok {
			if r.stats != nil {
				r.stats.Hit(r.inner.Name())
			}
			var items []model.EvidenceItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
			// Corrupt entry: drop it and fall through to the network.
			_ = r.store.Delete(key)
		}
		if r.stats != nil {
			r.stats.Miss(r.inner.Name())
		}
	}

	var items []model.EvidenceItem
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		return r.retryer.Do(ctx, func(ctx context.Context) error {
			if r.limiter != nil {
				if err := r.limiter.Wait(ctx, r.inner.Name()); err != nil {
					return err
				}
			}
			cctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			r.apiCalls.Add(1)
			res, err := r.inner.Search(cctx, claim)
			if err != nil {
				return err
			}
			items = res
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.inner.Name(), err)
	}

	if r.store != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = r.store.Set(key, data, r.inner.TTL())
		}
	}
	return items, nil
}

// APICalls returns the number of network attempts made through this
// provider since process start.
func (r *Resilient) APICalls() int64 {
	return r.apiCalls.Load()
}

// BreakerSnapshot exposes the breaker state for stats reporting.
func (r *Resilient) BreakerSnapshot() resilience.Snapshot {
	return r.breaker.Snapshot()
}
