package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmartin/veracity/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "veracity.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport() *model.RunReport {
	published := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	return &model.RunReport{
		RunID:      "run-001",
		StartedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 1, 10, 1, 0, 0, time.UTC),
		Results: []model.ClaimResult{
			{
				Claim: model.Claim{Text: "UK inflation fell to 5.2%", Position: 0, Domain: "economics", Jurisdiction: "uk"},
				Evidence: []model.EvidenceItem{
					{ID: "ev-1", Text: "CPI 5.2%", SourceName: "ONS", URL: "https://www.ons.gov.uk/cpi",
						PublishedAt: &published, Credibility: 0.95, Relevance: 0.8, Kind: model.KindDomainAPI},
					{ID: "ev-2", Text: "Inflation eased", SourceName: "BBC", URL: "https://www.bbc.co.uk/news/1",
						Credibility: 0.75, Relevance: 0.6, Kind: model.KindWeb},
				},
				Signal: model.VerificationSignal{
					ConsensusLabel: model.ConsensusSupports, ConsensusStrength: 1.0,
					SupportsCount: 2, SupportsWeight: 1.7,
				},
				Judgment: model.Judgment{
					Verdict: model.VerdictSupported, Confidence: 0.88,
					Rationale: "Official statistics confirm.", CitedEvidenceIDs: []string{"ev-1"},
				},
				State: model.StateDone,
			},
			{
				Claim:    model.Claim{Text: "unverifiable claim", Position: 1},
				Judgment: model.Judgment{Verdict: model.VerdictInsufficientEvidence, Confidence: 0.2},
				State:    model.StateDone,
			},
		},
		Stats: model.RunStats{ProvidersQueried: 4, APICallCount: 7, WebEvidenceCount: 1, DomainEvidenceCount: 1},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, sampleReport()); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, err := s.GetRun(ctx, "run-001")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got.Results))
	}

	first := got.Results[0]
	if first.Claim.Text != "UK inflation fell to 5.2%" || first.Claim.Domain != "economics" {
		t.Errorf("claim not restored: %+v", first.Claim)
	}
	if first.Judgment.Verdict != model.VerdictSupported || first.Judgment.Confidence != 0.88 {
		t.Errorf("judgment not restored: %+v", first.Judgment)
	}
	if len(first.Evidence) != 2 {
		t.Fatalf("expected 2 evidence items, got %d", len(first.Evidence))
	}
	if first.Evidence[0].PublishedAt == nil && first.Evidence[1].PublishedAt == nil {
		t.Error("published_at lost in round trip")
	}
	if len(first.Judgment.CitedEvidenceIDs) != 1 || first.Judgment.CitedEvidenceIDs[0] != "ev-1" {
		t.Errorf("citations not restored: %v", first.Judgment.CitedEvidenceIDs)
	}
	if first.Signal.ConsensusLabel != model.ConsensusSupports || first.Signal.SupportsCount != 2 {
		t.Errorf("signal not restored: %+v", first.Signal)
	}

	second := got.Results[1]
	if second.Judgment.Verdict != model.VerdictInsufficientEvidence {
		t.Errorf("second verdict = %s", second.Judgment.Verdict)
	}
	if got.Stats.APICallCount != 7 {
		t.Errorf("stats not restored: %+v", got.Stats)
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleReport()
	second := sampleReport()
	second.RunID = "run-002"
	second.StartedAt = first.StartedAt.Add(time.Hour)
	second.FinishedAt = first.FinishedAt.Add(time.Hour)

	if err := s.SaveRun(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-002" {
		t.Errorf("newest run should come first, got %s", runs[0].RunID)
	}
	if runs[0].ClaimCount != 2 {
		t.Errorf("claim count = %d, want 2", runs[0].ClaimCount)
	}
}

func TestGetRun_Missing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRun(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestSaveRun_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveRun(ctx, sampleReport()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveRun(ctx, sampleReport()); err == nil {
		t.Fatal("expected primary key violation on duplicate run id")
	}
}
