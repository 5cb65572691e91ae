package model

// Default domain and jurisdiction tags assigned when classification
// has nothing to go on.
const (
	DomainGeneral      = "general"
	JurisdictionGlobal = "global"
)

// Claim represents a single factual assertion handed to the pipeline.
// Claims are immutable once a run starts; the pipeline never writes back
// into them.
type Claim struct {
	Text             string   `json:"text"`                        // The claim text itself
	Position         int      `json:"position"`                    // Index in the source document (0-based)
	KeyEntities      []string `json:"key_entities,omitempty"`      // Named entities mentioned by the claim
	IsTimeSensitive  bool     `json:"is_time_sensitive"`           // Whether recency matters for verification
	NumericTolerance *float64 `json:"numeric_tolerance,omitempty"` // Acceptable deviation for numeric claims
	Domain           string   `json:"domain,omitempty"`            // Detected domain tag (economics, health, ...)
	Jurisdiction     string   `json:"jurisdiction,omitempty"`      // Detected jurisdiction (uk, us, global, ...)
	Heuristic        string   `json:"heuristic,omitempty"`         // Which extraction rule produced the claim
}

// HasNumericTolerance reports whether the claim carries a numeric tolerance.
func (c Claim) HasNumericTolerance() bool {
	return c.NumericTolerance != nil
}
