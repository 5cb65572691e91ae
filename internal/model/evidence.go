package model

import "time"

// ProviderKind classifies where a piece of evidence came from.
type ProviderKind string

const (
	KindWeb       ProviderKind = "web"        // Generic web search
	KindDomainAPI ProviderKind = "domain-api" // Domain-specific data provider
	KindFactCheck ProviderKind = "factcheck"  // Fact-check aggregator
)

// EvidenceItem is a retrieved document or snippet that may support or
// refute a claim. Items are created by the retriever and never mutated
// after ranking.
type EvidenceItem struct {
	ID          string     `json:"id"`                     // Stable reference used by judgments
	Text        string     `json:"text"`                   // Snippet or excerpt text
	SourceName  string     `json:"source_name"`            // Human-readable source (publisher, dataset)
	URL         string     `json:"url"`                    // Full URL of the item
	PublishedAt *time.Time `json:"published_at,omitempty"` // Publication date, if known
	Credibility float64    `json:"credibility_score"`      // Source credibility in [0,1]
	Relevance   float64    `json:"relevance_score"`        // Semantic relevance to the claim in [0,1]
	Kind        ProviderKind `json:"provider_kind"`        // web, domain-api, factcheck
	DomainTag   string     `json:"domain_tag"`             // Domain the providing adapter serves
}

// StanceLabel is the relationship between one evidence item and one claim.
type StanceLabel string

const (
	StanceSupports    StanceLabel = "supports"
	StanceContradicts StanceLabel = "contradicts"
	StanceNeutral     StanceLabel = "neutral"
)

// StanceResult records the stance of a single evidence item toward a claim.
// Never mutated after creation.
type StanceResult struct {
	EvidenceID string      `json:"evidence_ref"`
	Label      StanceLabel `json:"label"`
	Confidence float64     `json:"confidence"`
}

// ConsensusLabel is the aggregated direction of all stances for a claim.
type ConsensusLabel string

const (
	ConsensusSupports    ConsensusLabel = "supports"
	ConsensusContradicts ConsensusLabel = "contradicts"
	ConsensusConflicting ConsensusLabel = "conflicting"
	ConsensusNone        ConsensusLabel = "none" // No non-neutral stance available
)

// VerificationSignal is the per-claim aggregate over all stance results.
// It is derived data: recomputed from the full stance set, never updated
// incrementally.
type VerificationSignal struct {
	ConsensusLabel    ConsensusLabel `json:"consensus_label"`
	ConsensusStrength float64        `json:"consensus_strength"` // |supports - contradicts| / total weight
	SupportsCount     int            `json:"supports_count"`
	ContradictsCount  int            `json:"contradicts_count"`
	NeutralCount      int            `json:"neutral_count"`
	SupportsWeight    float64        `json:"supports_weight"`
	ContradictsWeight float64        `json:"contradicts_weight"`
}

// TotalWeight returns the combined confidence-weighted mass on both sides.
// Neutral results carry no weight.
func (s VerificationSignal) TotalWeight() float64 {
	return s.SupportsWeight + s.ContradictsWeight
}
