// Package judge turns a claim's evidence set and verification signal
// into a final verdict with confidence and rationale. A generative
// model drafts the verdict; deterministic override rules always have
// the last word.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rmartin/veracity/internal/llm"
	"github.com/rmartin/veracity/internal/model"
)

// Override rule names recorded on the judgment.
const (
	RuleInsufficientEvidence = "insufficient_evidence"
	RuleConflictingSignal    = "conflicting_signal"
	RuleNumericTolerance     = "numeric_tolerance"
	RuleAbstention           = "abstention"
	RuleFallback             = "rule_based_fallback"
)

// numericForcedConfidence is assigned when the numeric tolerance rule
// fires. The comparison is arithmetic, so the verdict does not inherit
// the model's hedging.
const numericForcedConfidence = 0.85

const judgmentSystemPrompt = `You are a fact-checking judge. Given a claim and evidence, respond with a single JSON object:
{"verdict": "supported|contradicted|uncertain|insufficient_evidence|conflicting_expert_opinion", "confidence": 0.0-1.0, "rationale": "...", "cited_evidence_ids": ["..."]}
Respond with JSON only, no other text.`

// Synthesizer produces the final judgment for a claim.
type Synthesizer struct {
	provider llm.Provider
	cfg      model.JudgmentConfig
	verbose  bool
}

// NewSynthesizer builds a synthesizer over the given generation
// backend. A nil provider always takes the rule-based path.
func NewSynthesizer(provider llm.Provider, cfg model.JudgmentConfig, verbose bool) *Synthesizer {
	return &Synthesizer{provider: provider, cfg: cfg, verbose: verbose}
}

// Judge produces the claim's judgment. Generation failures fall back
// to a verdict derived from the consensus signal; the claim never
// fails at this stage.
func (s *Synthesizer) Judge(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem, signal model.VerificationSignal) model.Judgment {
	j, err := s.generate(ctx, claim, evidence, signal)
	if err != nil {
		if s.verbose {
			fmt.Fprintf(os.Stderr, "judge: generation failed, using rule-based verdict: %v\n", err)
		}
		j = s.ruleBased(signal)
	}
	j.CitedEvidenceIDs = filterCited(j.CitedEvidenceIDs, evidence)
	return s.applyOverrides(claim, evidence, signal, j)
}

// applyOverrides runs the deterministic rules in precedence order. At
// most one rule rewrites the verdict; abstention only fires when no
// stronger rule did.
func (s *Synthesizer) applyOverrides(claim model.Claim, evidence []model.EvidenceItem, signal model.VerificationSignal, j model.Judgment) model.Judgment {
	if len(evidence) < s.cfg.MinEvidence {
		j.Verdict = model.VerdictInsufficientEvidence
		if j.Confidence > s.cfg.InsufficientCap {
			j.Confidence = s.cfg.InsufficientCap
		}
		j.RuleApplied = RuleInsufficientEvidence
		return j
	}

	if s.isConflicting(signal) {
		j.Verdict = model.VerdictConflictingOpinion
		j.RuleApplied = RuleConflictingSignal
		return j
	}

	if verdict, ok := s.numericVerdict(claim, evidence); ok {
		j.Verdict = verdict
		j.Confidence = numericForcedConfidence
		j.RuleApplied = RuleNumericTolerance
		return j
	}

	if j.Confidence < s.cfg.AbstentionFloor && j.IsDecisive() {
		j.Verdict = model.VerdictUncertain
		j.RuleApplied = RuleAbstention
	}
	return j
}

// isConflicting reports whether both sides carry comparable weighted
// mass. An exact tie already arrives labeled conflicting; near ties
// inside the mass window are treated the same way.
func (s *Synthesizer) isConflicting(signal model.VerificationSignal) bool {
	if signal.ConsensusLabel == model.ConsensusConflicting {
		return true
	}
	if signal.SupportsWeight <= 0 || signal.ContradictsWeight <= 0 {
		return false
	}
	return signal.ConsensusStrength <= s.cfg.ConflictMassWindow
}

// numericVerdict applies the numeric tolerance rule: the evidence value
// closest to the claimed value decides the verdict arithmetically.
func (s *Synthesizer) numericVerdict(claim model.Claim, evidence []model.EvidenceItem) (model.Verdict, bool) {
	if !claim.HasNumericTolerance() {
		return "", false
	}
	claimed, ok := claimedValue(claim.Text)
	if !ok {
		return "", false
	}
	texts := make([]string, 0, len(evidence))
	for _, item := range evidence {
		texts = append(texts, item.Text)
	}
	observed, ok := closestEvidenceValue(claimed, texts)
	if !ok {
		return "", false
	}
	if math.Abs(observed-claimed) <= *claim.NumericTolerance {
		return model.VerdictSupported, true
	}
	return model.VerdictContradicted, true
}

// generate asks the model for a draft judgment.
func (s *Synthesizer) generate(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem, signal model.VerificationSignal) (model.Judgment, error) {
	if s.provider == nil {
		return model.Judgment{}, fmt.Errorf("no generation backend configured")
	}

	raw, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System: judgmentSystemPrompt,
		Prompt: buildJudgmentPrompt(claim, evidence, signal),
	})
	if err != nil {
		return model.Judgment{}, fmt.Errorf("generate judgment: %w", err)
	}
	return parseJudgment(raw)
}

// ruleBased derives a verdict from the consensus signal alone.
func (s *Synthesizer) ruleBased(signal model.VerificationSignal) model.Judgment {
	j := model.Judgment{RuleApplied: RuleFallback}
	switch signal.ConsensusLabel {
	case model.ConsensusSupports:
		j.Verdict = model.VerdictSupported
		j.Confidence = signal.ConsensusStrength
		j.Rationale = fmt.Sprintf("Weighted evidence supports the claim (%d supporting vs %d contradicting).",
			signal.SupportsCount, signal.ContradictsCount)
	case model.ConsensusContradicts:
		j.Verdict = model.VerdictContradicted
		j.Confidence = signal.ConsensusStrength
		j.Rationale = fmt.Sprintf("Weighted evidence contradicts the claim (%d contradicting vs %d supporting).",
			signal.ContradictsCount, signal.SupportsCount)
	case model.ConsensusConflicting:
		j.Verdict = model.VerdictConflictingOpinion
		j.Confidence = 0.5
		j.Rationale = "Credible sources are evenly split on this claim."
	default:
		j.Verdict = model.VerdictUncertain
		j.Confidence = 0
		j.Rationale = "No evidence took a clear position on this claim."
	}
	return j
}

func buildJudgmentPrompt(claim model.Claim, evidence []model.EvidenceItem, signal model.VerificationSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\n", claim.Text)
	fmt.Fprintf(&b, "Verification signal: consensus=%s strength=%.2f (supports %d, contradicts %d, neutral %d)\n\n",
		signal.ConsensusLabel, signal.ConsensusStrength,
		signal.SupportsCount, signal.ContradictsCount, signal.NeutralCount)
	b.WriteString("Evidence:\n")
	for _, item := range evidence {
		date := "undated"
		if item.PublishedAt != nil {
			date = item.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "[%s] %s (%s, credibility %.2f): %s\n",
			item.ID, item.SourceName, date, item.Credibility, item.Text)
	}
	return b.String()
}

type judgmentPayload struct {
	Verdict          string   `json:"verdict"`
	Confidence       float64  `json:"confidence"`
	Rationale        string   `json:"rationale"`
	CitedEvidenceIDs []string `json:"cited_evidence_ids"`
}

// parseJudgment extracts the JSON object from the model's response and
// validates the verdict label.
func parseJudgment(raw string) (model.Judgment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return model.Judgment{}, fmt.Errorf("no JSON object in response: %q", truncate(raw, 120))
	}

	var payload judgmentPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return model.Judgment{}, fmt.Errorf("parse judgment: %w", err)
	}

	verdict, err := normalizeVerdict(payload.Verdict)
	if err != nil {
		return model.Judgment{}, err
	}
	conf := payload.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return model.Judgment{
		Verdict:          verdict,
		Confidence:       conf,
		Rationale:        payload.Rationale,
		CitedEvidenceIDs: payload.CitedEvidenceIDs,
	}, nil
}

func normalizeVerdict(raw string) (model.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "supported", "support", "true":
		return model.VerdictSupported, nil
	case "contradicted", "contradict", "false":
		return model.VerdictContradicted, nil
	case "uncertain", "unknown":
		return model.VerdictUncertain, nil
	case "insufficient_evidence", "insufficient evidence":
		return model.VerdictInsufficientEvidence, nil
	case "conflicting_expert_opinion", "conflicting":
		return model.VerdictConflictingOpinion, nil
	default:
		return "", fmt.Errorf("unknown verdict %q", raw)
	}
}

// filterCited keeps only citations that refer to items in the final
// evidence set; excluded or hallucinated IDs are dropped.
func filterCited(cited []string, evidence []model.EvidenceItem) []string {
	if len(cited) == 0 {
		return nil
	}
	valid := make(map[string]bool, len(evidence))
	for _, item := range evidence {
		valid[item.ID] = true
	}
	out := cited[:0]
	for _, id := range cited {
		if valid[id] {
			out = append(out, id)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
