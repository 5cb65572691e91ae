package model

import "time"

// ClaimState tracks a claim through the pipeline state machine.
type ClaimState string

const (
	StatePending    ClaimState = "pending"
	StateRetrieving ClaimState = "retrieving"
	StateVerifying  ClaimState = "verifying"
	StateJudging    ClaimState = "judging"
	StateDone       ClaimState = "done"
	StateFailed     ClaimState = "failed"
)

// StageEvent is emitted on every claim state transition. Consumers use it
// for real-time progress reporting; delivery is best-effort.
type StageEvent struct {
	RunID         string     `json:"run_id"`
	ClaimPosition int        `json:"claim_position"`
	From          ClaimState `json:"from"`
	To            ClaimState `json:"to"`
	At            time.Time  `json:"at"`
}

// ClaimResult bundles everything the pipeline produced for one claim.
type ClaimResult struct {
	Claim         Claim          `json:"claim"`
	Evidence      []EvidenceItem `json:"evidence"`                 // Final post-filter evidence set
	ExcludedStale []EvidenceItem `json:"excluded_stale,omitempty"` // Audit list, never cited
	Stances       []StanceResult `json:"stances,omitempty"`
	Signal        VerificationSignal `json:"signal"`
	Judgment      Judgment       `json:"judgment"`
	State         ClaimState     `json:"state"`
	Error         string         `json:"error,omitempty"` // Set only when State is failed
}

// RunStats aggregates per-run provider usage for downstream reporting.
type RunStats struct {
	ProvidersQueried      int     `json:"providers_queried"`
	APICallCount          int64   `json:"api_call_count"`
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
	WebEvidenceCount      int     `json:"web_evidence_count"`
	DomainEvidenceCount   int     `json:"domain_evidence_count"`
	APICoveragePercentage float64 `json:"api_coverage_percentage"` // Share of evidence from domain providers
}

// RunReport is the complete output of one pipeline run: one result per
// input claim, ordered by claim position regardless of completion order.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []ClaimResult `json:"results"`
	Stats      RunStats      `json:"stats"`
}

// Judgments returns the ordered judgments, one per input claim.
func (r *RunReport) Judgments() []Judgment {
	out := make([]Judgment, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Judgment
	}
	return out
}
