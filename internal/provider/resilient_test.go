package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rmartin/veracity/internal/cache"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/resilience"
)

// fakeProvider is a scriptable adapter for resilience tests.
type fakeProvider struct {
	name  string
	kind  model.ProviderKind
	items []model.EvidenceItem
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Kind() model.ProviderKind         { return f.kind }
func (f *fakeProvider) Matches(d, j string) bool         { return true }
func (f *fakeProvider) TTL() time.Duration               { return time.Hour }
func (f *fakeProvider) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func newTestWrap(p Provider, store cache.Cache, stats *cache.Stats) *Resilient {
	return Wrap(p, ResilientOptions{
		Cache:            store,
		Stats:            stats,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		RecoveryTimeout:  time.Minute,
		MaxRetries:       1,
		RetryBackoff:     time.Millisecond,
		CallTimeout:      time.Second,
	})
}

func TestResilient_CacheHitSkipsNetwork(t *testing.T) {
	fake := &fakeProvider{name: "web", kind: model.KindWeb, items: []model.EvidenceItem{{URL: "https://a.example/x", Text: "t"}}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	stats := cache.NewStats()
	r := newTestWrap(fake, store, stats)
	claim := model.Claim{Text: "the sky is blue"}

	// First call misses and populates.
	if _, err := r.Search(context.Background(), claim); err != nil {
		t.Fatalf("first search: %v", err)
	}
	// Second call must come from cache.
	items, err := r.Search(context.Background(), claim)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 cached item, got %d", len(items))
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("expected 1 network call, got %d", got)
	}

	snap := stats.Snapshot()["web"]
	if snap.Hits != 1 || snap.Misses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %+v", snap)
	}
}

func TestResilient_FailuresAreNeverCached(t *testing.T) {
	fake := &fakeProvider{name: "web", kind: model.KindWeb, err: &resilience.ProviderError{Provider: "web", StatusCode: 404, Message: "nope"}}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	r := newTestWrap(fake, store, cache.NewStats())
	claim := model.Claim{Text: "q"}

	for i := 0; i < 4; i++ {
		if _, err := r.Search(context.Background(), claim); err == nil {
			t.Fatal("expected failure")
		}
	}
	if _, ok := store.Get(cache.Key("web", "q")); ok {
		t.Error("failed responses must not populate the cache")
	}
}

func TestResilient_BreakerOpensAndBlocksCalls(t *testing.T) {
	fake := &fakeProvider{name: "ons", kind: model.KindDomainAPI, err: &resilience.ProviderError{Provider: "ons", StatusCode: 400, Message: "bad"}}
	r := newTestWrap(fake, nil, nil)
	claim := model.Claim{Text: "q"}

	// Three guarded failures trip the breaker (threshold 3).
	for i := 0; i < 3; i++ {
		_, _ = r.Search(context.Background(), claim)
	}
	before := fake.calls.Load()

	_, err := r.Search(context.Background(), claim)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if fake.calls.Load() != before {
		t.Error("open breaker must not reach the network")
	}
	if r.BreakerSnapshot().State != "open" {
		t.Errorf("expected open breaker, got %s", r.BreakerSnapshot().State)
	}
}

func TestResilient_RetriesCountEachAttempt(t *testing.T) {
	fake := &fakeProvider{name: "web", kind: model.KindWeb, err: &resilience.ProviderError{Provider: "web", StatusCode: 503, Message: "flaky"}}
	r := Wrap(fake, ResilientOptions{
		FailureThreshold: 10,
		MaxRetries:       3,
		RetryBackoff:     time.Millisecond,
		CallTimeout:      time.Second,
	})

	_, _ = r.Search(context.Background(), model.Claim{Text: "q"})

	if got := fake.calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if r.APICalls() != 3 {
		t.Errorf("expected APICalls 3, got %d", r.APICalls())
	}
	// Retries happen inside one guarded call: one breaker failure only.
	if snap := r.BreakerSnapshot(); snap.Failures != 1 {
		t.Errorf("expected 1 breaker failure for the guarded call, got %d", snap.Failures)
	}
}
