package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/provider"
	"github.com/rmartin/veracity/internal/resilience"
)

type stubProvider struct {
	name  string
	kind  model.ProviderKind
	items []model.EvidenceItem
	err   error
}

func (s *stubProvider) Name() string             { return s.name }
func (s *stubProvider) Kind() model.ProviderKind { return s.kind }
func (s *stubProvider) Matches(d, j string) bool { return true }
func (s *stubProvider) TTL() time.Duration       { return time.Hour }
func (s *stubProvider) Search(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func wrapStub(s *stubProvider) *provider.Resilient {
	return provider.Wrap(s, provider.ResilientOptions{
		FailureThreshold: 5,
		MaxRetries:       1,
		RetryBackoff:     time.Millisecond,
		CallTimeout:      time.Second,
	})
}

func newTestRetriever(providers ...*stubProvider) *Retriever {
	wrapped := make([]*provider.Resilient, len(providers))
	for i, p := range providers {
		wrapped[i] = wrapStub(p)
	}
	cfg := model.DefaultConfig()
	return NewRetriever(cfg, provider.NewRegistryOf(wrapped...), Options{})
}

func TestRetrieve_MergesAcrossProviders(t *testing.T) {
	web := &stubProvider{name: "web", kind: model.KindWeb, items: []model.EvidenceItem{
		{Text: "UK inflation fell to 5.2% in October", URL: "https://www.bbc.co.uk/news/1", Kind: model.KindWeb},
	}}
	ons := &stubProvider{name: "ons", kind: model.KindDomainAPI, items: []model.EvidenceItem{
		{Text: "CPI annual rate 5.2% October", URL: "https://www.ons.gov.uk/cpi", Kind: model.KindDomainAPI},
	}}
	r := newTestRetriever(web, ons)

	res, err := r.Retrieve(context.Background(), model.Claim{Text: "UK inflation fell to 5.2% in October"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(res.Evidence) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(res.Evidence))
	}
	if res.ProvidersQueried != 2 || res.ProvidersFailed != 0 {
		t.Errorf("stats = %d queried / %d failed, want 2/0", res.ProvidersQueried, res.ProvidersFailed)
	}
	if res.WebCount != 1 || res.DomainCount != 1 {
		t.Errorf("provenance = web %d / domain %d, want 1/1", res.WebCount, res.DomainCount)
	}
	for _, item := range res.Evidence {
		if item.ID == "" {
			t.Error("merged evidence must carry IDs")
		}
		if item.Credibility == 0 {
			t.Error("merged evidence must carry credibility scores")
		}
	}
}

func TestRetrieve_ProviderFailureDegradesNotFails(t *testing.T) {
	healthy := &stubProvider{name: "web", kind: model.KindWeb, items: []model.EvidenceItem{
		{Text: "UK inflation fell to 5.2%", URL: "https://www.reuters.com/a", Kind: model.KindWeb},
	}}
	broken := &stubProvider{name: "ons", kind: model.KindDomainAPI,
		err: &resilience.ProviderError{Provider: "ons", StatusCode: 503, Message: "down"}}
	r := newTestRetriever(healthy, broken)

	res, err := r.Retrieve(context.Background(), model.Claim{Text: "UK inflation fell to 5.2%"})
	if err != nil {
		t.Fatalf("a failing provider must not fail the claim: %v", err)
	}
	if len(res.Evidence) != 1 {
		t.Fatalf("expected the healthy provider's item, got %d items", len(res.Evidence))
	}
	if res.ProvidersFailed != 1 {
		t.Errorf("ProvidersFailed = %d, want 1", res.ProvidersFailed)
	}
}

func TestRetrieve_AllProvidersFailYieldsEmptySet(t *testing.T) {
	a := &stubProvider{name: "web", kind: model.KindWeb,
		err: &resilience.ProviderError{Provider: "web", StatusCode: 500, Message: "x"}}
	b := &stubProvider{name: "ons", kind: model.KindDomainAPI, err: resilience.ErrProviderTimeout}
	r := newTestRetriever(a, b)

	res, err := r.Retrieve(context.Background(), model.Claim{Text: "anything"})
	if err != nil {
		t.Fatalf("total provider failure is a degraded outcome, not an error: %v", err)
	}
	if len(res.Evidence) != 0 {
		t.Errorf("expected empty evidence set, got %d items", len(res.Evidence))
	}
	if res.ProvidersFailed != 2 {
		t.Errorf("ProvidersFailed = %d, want 2", res.ProvidersFailed)
	}
}

func TestRetrieve_CancelledContextReturnsError(t *testing.T) {
	p := &stubProvider{name: "web", kind: model.KindWeb}
	r := newTestRetriever(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Retrieve(ctx, model.Claim{Text: "anything"}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}

func TestRetrieve_ClassifiesUntaggedClaims(t *testing.T) {
	p := &stubProvider{name: "web", kind: model.KindWeb}
	r := newTestRetriever(p)

	res, err := r.Retrieve(context.Background(), model.Claim{Text: "UK inflation fell according to the ONS"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if res.DomainTag != "economics" || res.Jurisdiction != "uk" {
		t.Errorf("classified as %s/%s, want economics/uk", res.DomainTag, res.Jurisdiction)
	}

	// Explicit tags are respected.
	res, err = r.Retrieve(context.Background(), model.Claim{Text: "UK inflation fell", Domain: "health", Jurisdiction: "eu"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if res.DomainTag != "health" || res.Jurisdiction != "eu" {
		t.Errorf("explicit tags overridden: got %s/%s", res.DomainTag, res.Jurisdiction)
	}
}
