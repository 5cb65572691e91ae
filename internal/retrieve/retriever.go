// Package retrieve fans a claim out to the matching evidence providers
// and merges the responses into a ranked, deduplicated evidence set.
package retrieve

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rmartin/veracity/internal/classify"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/provider"
)

// minSnippetChars is the text length below which a web result is worth
// enriching with a page excerpt.
const minSnippetChars = 200

// Result is the retrieval outcome for one claim.
type Result struct {
	Evidence      []model.EvidenceItem
	ExcludedStale []model.EvidenceItem
	DomainTag     string
	Jurisdiction  string

	ProvidersQueried int
	ProvidersFailed  int
	WebCount         int
	DomainCount      int
	FactCheckCount   int
}

// Retriever coordinates provider fan-out for a single claim. Provider
// failures degrade the evidence set but never fail the claim; only
// context cancellation aborts retrieval.
type Retriever struct {
	registry   *provider.Registry
	classifier *classify.Classifier
	ranker     *ranker
	fetcher    *provider.PageFetcher
	enrich     bool
	verbose    bool
}

// Options tunes optional retriever behavior.
type Options struct {
	// Fetcher enables web snippet enrichment when non-nil and the
	// retrieval config asks for it.
	Fetcher *provider.PageFetcher
	Verbose bool
}

// NewRetriever builds a retriever over the given registry.
func NewRetriever(cfg *model.Config, registry *provider.Registry, opts Options) *Retriever {
	return &Retriever{
		registry:   registry,
		classifier: classify.NewClassifier(),
		ranker:     newRanker(cfg.Retrieval, NewCredibilityScorer(cfg.Credibility)),
		fetcher:    opts.Fetcher,
		enrich:     cfg.Retrieval.EnrichSnippets && opts.Fetcher != nil,
		verbose:    opts.Verbose,
	}
}

// Retrieve gathers, merges, and ranks evidence for the claim. An empty
// evidence set is a valid outcome; the error is non-nil only when the
// context is cancelled.
func (r *Retriever) Retrieve(ctx context.Context, claim model.Claim) (*Result, error) {
	claim = r.classified(claim)
	providers := r.registry.Select(claim.Domain, claim.Jurisdiction)

	results := make([][]model.EvidenceItem, len(providers))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			items, err := p.Search(gctx, claim)
			if err != nil {
				// A failed provider contributes nothing; the claim
				// proceeds on whatever the others returned.
				mu.Lock()
				failed++
				mu.Unlock()
				if r.verbose {
					fmt.Fprintf(os.Stderr, "retrieve: provider %s: %v\n", p.Name(), err)
				}
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}

	var all []model.EvidenceItem
	for _, items := range results {
		all = append(all, items...)
	}

	if r.enrich {
		r.enrichSnippets(ctx, all)
	}

	final, excluded := r.ranker.Merge(claim, all)

	res := &Result{
		Evidence:         final,
		ExcludedStale:    excluded,
		DomainTag:        claim.Domain,
		Jurisdiction:     claim.Jurisdiction,
		ProvidersQueried: len(providers),
		ProvidersFailed:  failed,
	}
	for _, item := range final {
		switch item.Kind {
		case model.KindWeb:
			res.WebCount++
		case model.KindFactCheck:
			res.FactCheckCount++
		default:
			res.DomainCount++
		}
	}
	if r.verbose {
		fmt.Fprintf(os.Stderr, "retrieve: %d providers, %d raw, %d kept, %d stale\n",
			len(providers), len(all), len(final), len(excluded))
	}
	return res, nil
}

// classified fills in missing domain and jurisdiction tags using the
// rule-based classifier. Caller-supplied tags are kept as-is.
func (r *Retriever) classified(claim model.Claim) model.Claim {
	if claim.Domain != "" && claim.Jurisdiction != "" {
		return claim
	}
	c := r.classifier.Classify(claim)
	if claim.Domain == "" {
		claim.Domain = c.DomainTag
	}
	if claim.Jurisdiction == "" {
		claim.Jurisdiction = c.Jurisdiction
	}
	return claim
}

// enrichSnippets replaces thin web snippets with a page excerpt where
// robots.txt permits. Fetch failures leave the original snippet.
func (r *Retriever) enrichSnippets(ctx context.Context, items []model.EvidenceItem) {
	for i := range items {
		if items[i].Kind != model.KindWeb || len(items[i].Text) >= minSnippetChars {
			continue
		}
		excerpt, err := r.fetcher.Excerpt(ctx, items[i].URL)
		if err != nil || excerpt == "" {
			continue
		}
		items[i].Text = excerpt
	}
}
