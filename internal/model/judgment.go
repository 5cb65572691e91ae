package model

// Verdict is the final calibrated outcome for a claim.
type Verdict string

const (
	VerdictSupported            Verdict = "supported"
	VerdictContradicted         Verdict = "contradicted"
	VerdictUncertain            Verdict = "uncertain"
	VerdictInsufficientEvidence Verdict = "insufficient_evidence"
	VerdictConflictingOpinion   Verdict = "conflicting_expert_opinion"
)

// Judgment is the terminal artifact for a claim. Written once by the
// synthesizer and immutable thereafter. CitedEvidenceIDs reference only
// items present in the claim's final evidence set.
type Judgment struct {
	Verdict          Verdict  `json:"verdict"`
	Confidence       float64  `json:"confidence"`
	Rationale        string   `json:"rationale"`
	CitedEvidenceIDs []string `json:"cited_evidence_refs,omitempty"`
	RuleApplied      string   `json:"rule_applied,omitempty"` // Deterministic override that fired, if any
}

// IsDecisive reports whether the verdict takes a side.
func (j Judgment) IsDecisive() bool {
	return j.Verdict == VerdictSupported || j.Verdict == VerdictContradicted
}
