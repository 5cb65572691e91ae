package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rmartin/veracity/internal/model"
)

var verdictGlyphs = map[model.Verdict]string{
	model.VerdictSupported:            "✓",
	model.VerdictContradicted:         "✗",
	model.VerdictUncertain:            "?",
	model.VerdictInsufficientEvidence: "∅",
	model.VerdictConflictingOpinion:   "⚡",
}

// printReport writes the human-readable run summary.
func printReport(w io.Writer, report *model.RunReport) {
	fmt.Fprintf(w, "\nRun %s (%d claims, %s)\n", report.RunID, len(report.Results),
		report.FinishedAt.Sub(report.StartedAt).Round(10*time.Millisecond))
	fmt.Fprintln(w, strings.Repeat("─", 63))

	for _, res := range report.Results {
		glyph := verdictGlyphs[res.Judgment.Verdict]
		if res.State == model.StateFailed {
			fmt.Fprintf(w, "\n! [%d] %s\n", res.Claim.Position, res.Claim.Text)
			fmt.Fprintf(w, "    failed: %s\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "\n%s [%d] %s\n", glyph, res.Claim.Position, res.Claim.Text)
		fmt.Fprintf(w, "    verdict:    %s (confidence %.2f)\n", res.Judgment.Verdict, res.Judgment.Confidence)
		if res.Judgment.RuleApplied != "" {
			fmt.Fprintf(w, "    rule:       %s\n", res.Judgment.RuleApplied)
		}
		if res.Judgment.Rationale != "" {
			fmt.Fprintf(w, "    rationale:  %s\n", res.Judgment.Rationale)
		}
		fmt.Fprintf(w, "    evidence:   %d items (%d supports, %d contradicts, %d neutral)\n",
			len(res.Evidence), res.Signal.SupportsCount, res.Signal.ContradictsCount, res.Signal.NeutralCount)
		if len(res.ExcludedStale) > 0 {
			fmt.Fprintf(w, "    excluded:   %d items past the staleness window\n", len(res.ExcludedStale))
		}
		for _, id := range res.Judgment.CitedEvidenceIDs {
			for _, item := range res.Evidence {
				if item.ID == id {
					fmt.Fprintf(w, "      - %s (%s)\n", item.SourceName, item.URL)
				}
			}
		}
	}

	s := report.Stats
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 63))
	fmt.Fprintf(w, "providers queried: %d   api calls: %d   cache: %d hits / %d misses\n",
		s.ProvidersQueried, s.APICallCount, s.CacheHits, s.CacheMisses)
	fmt.Fprintf(w, "evidence sources:  %d web, %d domain (%.0f%% from domain providers)\n",
		s.WebEvidenceCount, s.DomainEvidenceCount, s.APICoveragePercentage)
}

func jsonReport(report *model.RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

// writeJSON renders the full report to a file.
func writeJSON(path string, report *model.RunReport) error {
	data, err := jsonReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// startEventPrinter consumes stage events onto stderr while a run is in
// flight. The returned stop function drains and closes the printer.
func startEventPrinter() (chan model.StageEvent, func()) {
	events := make(chan model.StageEvent, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			fmt.Fprintf(os.Stderr, "  claim %d: %s → %s\n", ev.ClaimPosition, ev.From, ev.To)
		}
	}()
	stop := func() {
		close(events)
		<-done
	}
	return events, stop
}
