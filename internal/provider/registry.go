package provider

import (
	"strings"

	"github.com/rmartin/veracity/internal/cache"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/resilience"
	"github.com/rmartin/veracity/internal/worker"
)

// Registry holds the resilient-wrapped adapters in registration order.
// The generic web-search provider is always first and always selected.
type Registry struct {
	providers []*Resilient
}

// NewRegistry builds the standard adapter set from configuration. Every
// adapter is wrapped with its own breaker and retryer; cache, stats, and
// limiter instances are shared across the set.
func NewRegistry(cfg *model.Config, store cache.Cache, stats *cache.Stats, limiter *worker.Limiter) *Registry {
	httpOpts := HTTPOptions{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.Retrieval.ProviderTimeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		HTTPProxy:    cfg.HTTP.HTTPProxy,
		HTTPSProxy:   cfg.HTTP.HTTPSProxy,
		NoProxy:      cfg.HTTP.NoProxy,
	}

	wrap := func(p Provider) *Resilient {
		return Wrap(p, ResilientOptions{
			Cache:            store,
			Stats:            stats,
			Limiter:          limiter,
			FailureThreshold: cfg.Resilience.FailureThreshold,
			SuccessThreshold: cfg.Resilience.SuccessThreshold,
			RecoveryTimeout:  cfg.Resilience.RecoveryTimeout,
			MaxRetries:       cfg.Resilience.MaxRetries,
			RetryBackoff:     cfg.Resilience.RetryBackoff,
			CallTimeout:      cfg.Retrieval.ProviderTimeout,
		})
	}

	r := &Registry{}
	r.providers = append(r.providers,
		wrap(NewWebSearch(cfg.Providers.SearchBaseURL, cfg.Providers.WebTTL, httpOpts)),
		wrap(NewWikipedia(cfg.Providers.WikipediaBaseURL, cfg.Providers.WikipediaTTL, httpOpts)),
		wrap(NewStatistics(cfg.Providers.StatisticsBaseURL, cfg.Providers.StatisticsTTL, httpOpts)),
		wrap(NewFactCheck(cfg.Providers.FactCheckBaseURL, cfg.Providers.FactCheckAPIKey, cfg.Providers.FactCheckTTL, httpOpts)),
	)
	return r
}

// NewRegistryOf wraps the given adapters as-is; used by tests to inject
// fakes behind the real resilience stack.
func NewRegistryOf(providers ...*Resilient) *Registry {
	return &Registry{providers: providers}
}

// Select returns the providers whose predicate matches the claim's
// domain and jurisdiction, in registration order. The generic web
// provider matches everything, so the result is never empty.
func (r *Registry) Select(domainTag, jurisdiction string) []*Resilient {
	domainTag = normalizeTag(domainTag, model.DomainGeneral)
	jurisdiction = normalizeTag(jurisdiction, model.JurisdictionGlobal)

	var out []*Resilient
	for _, p := range r.providers {
		if p.Matches(domainTag, jurisdiction) {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider.
func (r *Registry) All() []*Resilient {
	return r.providers
}

// APICallTotal sums network attempts across all providers.
func (r *Registry) APICallTotal() int64 {
	var total int64
	for _, p := range r.providers {
		total += p.APICalls()
	}
	return total
}

// BreakerSnapshots returns breaker state for every provider.
func (r *Registry) BreakerSnapshots() []resilience.Snapshot {
	out := make([]resilience.Snapshot, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.BreakerSnapshot())
	}
	return out
}

func normalizeTag(tag, fallback string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "" {
		return fallback
	}
	return tag
}
