package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/rmartin/veracity/internal/llm"
)

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Name() string                         { return "stub" }
func (s *stubGenerator) IsAvailable(ctx context.Context) bool { return true }
func (s *stubGenerator) Infer(ctx context.Context, req llm.InferRequest) (*llm.InferResult, error) {
	return nil, errors.New("not used")
}
func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	return s.response, s.err
}

func TestListClaims_ModelPath(t *testing.T) {
	gen := &stubGenerator{response: `[
		{"text": "UK inflation fell to 5.2% in October", "key_entities": ["ONS"], "is_time_sensitive": true, "numeric_tolerance": 0.1},
		{"text": "The Bank of England was founded in 1694", "key_entities": ["Bank of England"], "is_time_sensitive": false, "numeric_tolerance": null}
	]`}
	l := NewLister(gen, 20)

	claims, err := l.ListClaims(context.Background(), "some article text about inflation")
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Position != 0 || claims[1].Position != 1 {
		t.Errorf("positions not assigned in order: %d, %d", claims[0].Position, claims[1].Position)
	}
	if !claims[0].IsTimeSensitive || claims[0].NumericTolerance == nil {
		t.Errorf("claim metadata lost: %+v", claims[0])
	}
	if claims[1].NumericTolerance != nil {
		t.Errorf("null tolerance should stay nil: %+v", claims[1])
	}
}

func TestListClaims_FallsBackOnModelFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	l := NewLister(gen, 20)

	text := "UK inflation fell to 5.2% in October according to the ONS. The weather was nice."
	claims, err := l.ListClaims(context.Background(), text)
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 heuristic claim, got %d: %v", len(claims), claims)
	}
	if claims[0].Heuristic == "llm" {
		t.Errorf("expected a keyword heuristic, got %q", claims[0].Heuristic)
	}
}

func TestListClaims_HeuristicPath(t *testing.T) {
	l := NewLister(nil, 20)

	text := "UK inflation fell to 5.2% in October according to the ONS figures. " +
		"Short one. " +
		"The report was widely discussed over morning coffee across the country."
	claims, err := l.ListClaims(context.Background(), text)
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d: %v", len(claims), claims)
	}
	c := claims[0]
	if !c.IsTimeSensitive {
		t.Error("a claim about October should be time-sensitive")
	}
	found := false
	for _, e := range c.KeyEntities {
		if e == "ONS" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ONS in key entities, got %v", c.KeyEntities)
	}
}

func TestListClaims_DedupesAndTruncates(t *testing.T) {
	l := NewLister(nil, 2)

	text := "GDP increased by 0.3% in the second quarter of the year. " +
		"gdp increased by 0.3% in the second quarter of the year. " +
		"Unemployment fell to 4.1% according to the latest figures. " +
		"Exports to the EU decreased by 2% over the same period overall."
	claims, err := l.ListClaims(context.Background(), text)
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected dedupe then truncation to 2, got %d", len(claims))
	}
	if claims[0].Text == claims[1].Text {
		t.Error("duplicate claims survived")
	}
}

func TestListClaims_EmptyText(t *testing.T) {
	l := NewLister(nil, 20)
	claims, err := l.ListClaims(context.Background(), "   \n ")
	if err != nil || claims != nil {
		t.Errorf("empty input: claims=%v err=%v, want nil/nil", claims, err)
	}
}

func TestSplitSentences_DecimalsDoNotSplit(t *testing.T) {
	got := splitSentences("Inflation fell to 5.2% in October according to the statistics office. A second sentence follows here for good measure.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "Inflation fell to 5.2% in October according to the statistics office." {
		t.Errorf("decimal split the sentence: %q", got[0])
	}
}
