package stance

import "github.com/rmartin/veracity/internal/model"

// Aggregate folds stance results into a consensus signal. Each
// supporting or contradicting label contributes its confidence as
// weight; neutral labels count heads but carry zero weight, so a pile
// of uncertain evidence cannot outvote one confident source.
func Aggregate(results []model.StanceResult) model.VerificationSignal {
	var sig model.VerificationSignal
	for _, r := range results {
		switch r.Label {
		case model.StanceSupports:
			sig.SupportsCount++
			sig.SupportsWeight += r.Confidence
		case model.StanceContradicts:
			sig.ContradictsCount++
			sig.ContradictsWeight += r.Confidence
		default:
			sig.NeutralCount++
		}
	}

	total := sig.SupportsWeight + sig.ContradictsWeight
	if total == 0 {
		sig.ConsensusLabel = model.ConsensusNone
		return sig
	}

	diff := sig.SupportsWeight - sig.ContradictsWeight
	switch {
	case diff > 0:
		sig.ConsensusLabel = model.ConsensusSupports
		sig.ConsensusStrength = diff / total
	case diff < 0:
		sig.ConsensusLabel = model.ConsensusContradicts
		sig.ConsensusStrength = -diff / total
	default:
		// An exact weight tie is a genuine conflict, not a coin flip.
		sig.ConsensusLabel = model.ConsensusConflicting
	}
	return sig
}
