package state

import "time"

// #region origin
// Origin classifies how a state entered the store.
type Origin string

const (
	OriginObserved     Origin = "observed"     // extracted 1:1 from telemetry
	OriginInferred     Origin = "inferred"     // produced by a rule firing
	OriginHypothetical Origin = "hypothetical" // synthesized by missing-step inference
)

// #endregion origin

// #region key
// Key identifies a state proposition as a structured type:scope pair.
// Kept structured rather than string-concatenated so scope identifiers
// containing separators stay unambiguous.
type Key struct {
	Type  string `json:"type" yaml:"type"`
	Scope string `json:"scope" yaml:"scope"`
}

// String renders the conventional "type:scope" form for display.
func (k Key) String() string {
	return k.Type + ":" + k.Scope
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.Type == "" && k.Scope == ""
}

// #endregion key

// #region event
// Event is an observed fact from telemetry. Confidence is fixed at 1.0 and
// the origin is always observed; events are immutable once created.
type Event struct {
	Type      string
	Scope     string
	Timestamp time.Time
}

// Key returns the state key this event asserts.
func (e Event) Key() Key {
	return Key{Type: e.Type, Scope: e.Scope}
}

// #endregion event

// #region penalty-factors
// PenaltyFactors records the multiplicative factors applied to a derivation.
// Each factor is in [0, 1]; the chain only ever moves confidence toward zero.
type PenaltyFactors struct {
	TimeGap   float64
	Absence   float64
	TimeDecay float64
	Negative  float64
	Violation string // "" | "causality_violation" | "time_gap_exceeded"
}

// #endregion penalty-factors

// #region provenance
// Provenance links a state to the rule and parent states that produced it.
// Observed states carry an empty Provenance; hypothetical states carry the
// detector name in Rule and no parents.
type Provenance struct {
	Rule       string
	Parents    []Key
	Confidence float64 // confidence this derivation computed
	Factors    PenaltyFactors
}

// #endregion provenance

// #region state
// State is a confidence-scored proposition over the type:scope vocabulary.
type State struct {
	Key        Key
	Origin     Origin
	Confidence float64
	Timestamp  time.Time
	EventID    int // insertion order within the run

	// Provenance is the winning derivation; Alternates are losing
	// derivations kept for explanation only.
	Provenance Provenance
	Alternates []Provenance

	// Reason and Mechanism are set for hypothetical states only.
	Reason    string
	Mechanism string
}

// #endregion state
