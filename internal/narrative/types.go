package narrative

import (
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region variants
// Variant names the fixed narrative family, in canonical declaration order.
const (
	VariantFull           = "full"
	VariantConservative   = "conservative"
	VariantHighConfidence = "high-confidence"
	VariantDirect         = "direct"
	VariantMinimal        = "minimal"
)

// HighConfidenceThreshold is the inclusion cutoff for the high-confidence
// variant.
const HighConfidenceThreshold = 0.5

// #endregion variants

// #region narrative
// Stats carries the scoring inputs alongside the final score, for reporting.
type Stats struct {
	AvgConfidence       float64
	Coverage            float64
	ComplexityPenalty   float64
	HypotheticalPenalty float64
	Hypotheticals       int
	Inferred            int
	Observed            int
}

// Narrative is one candidate reconstruction: a named selection over the
// frozen state graph plus its score.
type Narrative struct {
	Name   string
	States []state.State
	Score  float64
	Stats  Stats
}

// Len returns the number of included states.
func (n *Narrative) Len() int {
	return len(n.States)
}

// Contains reports whether the narrative includes a state key.
func (n *Narrative) Contains(key state.Key) bool {
	for _, st := range n.States {
		if st.Key == key {
			return true
		}
	}
	return false
}

// #endregion narrative

// #region weights
// Weights are the scoring formula coefficients. They should sum to 1; Score
// does not renormalize.
type Weights struct {
	Confidence    float64 // weight on mean included confidence
	Coverage      float64 // weight on observed-state coverage
	Simplicity    float64 // weight on (1 - complexity penalty)
	Defensibility float64 // weight on (1 - hypothetical penalty)
}

// DefaultWeights returns the reference formula: 0.4 confidence, 0.3
// coverage, 0.2 simplicity, 0.1 defensibility.
func DefaultWeights() Weights {
	return Weights{Confidence: 0.4, Coverage: 0.3, Simplicity: 0.2, Defensibility: 0.1}
}

// Objective selects a re-weighting of the scoring formula.
type Objective string

const (
	// ObjectiveDefault scores with DefaultWeights.
	ObjectiveDefault Objective = ""

	// ObjectivePreferComplete favors narratives that explain more,
	// discounting parsimony and the hypothetical penalty.
	ObjectivePreferComplete Objective = "prefer-complete"

	// ObjectivePreferDefensible favors narratives an analyst can stand
	// behind, weighting hypothetical-free selections heavily.
	ObjectivePreferDefensible Objective = "prefer-defensible"
)

// WeightsFor maps an objective to its formula weights.
func WeightsFor(objective Objective) (Weights, bool) {
	switch objective {
	case ObjectiveDefault:
		return DefaultWeights(), true
	case ObjectivePreferComplete:
		return Weights{Confidence: 0.25, Coverage: 0.50, Simplicity: 0.05, Defensibility: 0.20}, true
	case ObjectivePreferDefensible:
		return Weights{Confidence: 0.30, Coverage: 0.20, Simplicity: 0.15, Defensibility: 0.35}, true
	}
	return Weights{}, false
}

// #endregion weights

// #region comparison
// Comparison reports, over the ranked set, each narrative's unique states
// (absent from every higher-ranked narrative) and the intersection shared by
// all variants.
type Comparison struct {
	Unique      map[string][]state.Key
	Shared      []state.Key
	Recommended string
}

// #endregion comparison
