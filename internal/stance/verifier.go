// Package stance labels each (claim, evidence) pair as supporting,
// contradicting, or neutral, and aggregates the labels into a
// consensus signal for the judgment stage.
package stance

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rmartin/veracity/internal/llm"
	"github.com/rmartin/veracity/internal/model"
)

// Verifier runs stance inference over a claim's evidence set with a
// bounded worker fan-out. Inference failures and low-confidence labels
// both collapse to neutral so a flaky model can only weaken a signal,
// never invent one.
type Verifier struct {
	provider            llm.Provider
	confidenceThreshold float64
	maxEvidenceChars    int
	workers             int
	verbose             bool
}

// NewVerifier builds a verifier over the given inference backend.
func NewVerifier(provider llm.Provider, cfg model.StanceConfig, verbose bool) *Verifier {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Verifier{
		provider:            provider,
		confidenceThreshold: cfg.ConfidenceThreshold,
		maxEvidenceChars:    cfg.MaxEvidenceChars,
		workers:             workers,
		verbose:             verbose,
	}
}

// Verify labels every evidence item against the claim. Results are
// returned in evidence order regardless of completion order. A nil
// provider labels everything neutral with zero confidence.
func (v *Verifier) Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) []model.StanceResult {
	results := make([]model.StanceResult, len(evidence))
	if len(evidence) == 0 {
		return results
	}

	sem := make(chan struct{}, v.workers)
	var wg sync.WaitGroup
	for i := range evidence {
		wg.Add(1)
		sem <- struct{}{}
		i := i
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = v.verifyOne(ctx, claim, evidence[i])
		}()
	}
	wg.Wait()
	return results
}

func (v *Verifier) verifyOne(ctx context.Context, claim model.Claim, item model.EvidenceItem) model.StanceResult {
	neutral := model.StanceResult{
		EvidenceID: item.ID,
		Label:      model.StanceNeutral,
		Confidence: 0,
	}
	if v.provider == nil {
		return neutral
	}

	// Long evidence is truncated; the claim text never is.
	text := item.Text
	if v.maxEvidenceChars > 0 && len(text) > v.maxEvidenceChars {
		text = text[:v.maxEvidenceChars]
	}

	res, err := v.provider.Infer(ctx, llm.InferRequest{
		ClaimText:    claim.Text,
		EvidenceText: text,
	})
	if err != nil {
		if v.verbose {
			fmt.Fprintf(os.Stderr, "stance: infer %s: %v\n", item.ID, err)
		}
		return neutral
	}

	// A label the model is not sure about is treated as neutral, but
	// the reported confidence is kept for the record.
	label := res.Label
	if res.Confidence < v.confidenceThreshold {
		label = model.StanceNeutral
	}
	return model.StanceResult{
		EvidenceID: item.ID,
		Label:      label,
		Confidence: res.Confidence,
	}
}
