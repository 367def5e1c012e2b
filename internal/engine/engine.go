package engine

import (
	"fmt"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/evidence"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/temporal"
)

// #region engine
// Engine runs forward chaining over a state store. Rules are scanned in
// declaration order each pass; the loop stops when a full pass changes
// nothing, or at the configured pass cap.
//
// The engine only adds to the store. The rule set, temporal evaluator and
// evidence penalizer are read-only during a run.
type Engine struct {
	rules    *rules.Set
	temporal *temporal.Evaluator
	evidence *evidence.Penalizer
	config   Config
}

// New creates an engine over the given collaborators.
func New(set *rules.Set, eval *temporal.Evaluator, pen *evidence.Penalizer, config Config) *Engine {
	if config.PassMultiplier <= 0 {
		config.PassMultiplier = DefaultConfig().PassMultiplier
	}
	return &Engine{rules: set, temporal: eval, evidence: pen, config: config}
}

// #endregion engine

// #region infer
// Infer runs the fixpoint loop and returns the firings that changed the
// store, in the order they happened.
func (e *Engine) Infer(store *state.Store) ([]Firing, error) {
	maxPasses := e.config.PassMultiplier * e.rules.Len()
	if maxPasses < 1 {
		maxPasses = 1
	}

	var fired []Firing
	for pass := 1; pass <= maxPasses; pass++ {
		changed := false
		for _, r := range e.rules.Rules() {
			for _, post := range r.Postconditions {
				cand, ok := e.evaluate(store, r, post)
				if !ok {
					continue
				}
				improved, err := store.Commit(cand)
				if err != nil {
					return fired, fmt.Errorf("rule %q: %w", r.Name, err)
				}
				if improved {
					changed = true
					fired = append(fired, Firing{Rule: r.Name, Key: post, Confidence: cand.Confidence, Pass: pass})
				}
			}
		}
		if !changed {
			break
		}
	}
	return fired, nil
}

// #endregion infer

// #region evaluate
// evaluate computes the candidate state a rule would commit for one of its
// postconditions. Returns false when any precondition is absent or has
// negligible confidence.
//
// The candidate confidence is the rule ceiling capped by the weakest parent,
// multiplied through the penalty chain: time gap (or causality violation),
// absence of corroborating evidence, age decay, and contradicting evidence.
func (e *Engine) evaluate(store *state.Store, r rules.Rule, post state.Key) (state.State, bool) {
	parents := make([]state.Key, 0, len(r.Preconditions))
	minParent := 1.0
	var tPre time.Time
	for _, pre := range r.Preconditions {
		st, ok := store.Get(pre)
		if !ok || st.Confidence <= state.MinConfidence {
			return state.State{}, false
		}
		parents = append(parents, pre)
		if st.Confidence < minParent {
			minParent = st.Confidence
		}
		if st.Timestamp.After(tPre) {
			tPre = st.Timestamp
		}
	}

	base := r.BaseConfidence
	if minParent < base {
		base = minParent
	}

	// The inferred effect inherits the latest cause time unless an
	// independent observation timestamps it differently. An observation
	// strictly before the cause is a causality violation.
	ts := tPre
	factors := state.PenaltyFactors{TimeGap: 1, Absence: 1, TimeDecay: 1, Negative: 1}
	if existing, ok := store.Get(post); ok && existing.Origin == state.OriginObserved && !existing.Timestamp.IsZero() {
		if pen, label, violated := e.temporal.CheckCausality(existing.Timestamp, tPre); violated {
			factors.TimeGap = pen
			factors.Violation = label
		} else if existing.Timestamp.After(tPre) {
			ts = existing.Timestamp
			gapPen, label := e.temporal.GapPenalty(existing.Timestamp.Sub(tPre), r.MaxTimeGap)
			factors.TimeGap = gapPen
			factors.Violation = label
		}
	}
	factors.Absence = e.evidence.Absence(post)
	factors.TimeDecay = e.temporal.Decay(ts)
	factors.Negative = e.evidence.Negative(post)

	conf := state.Clamp01(base * factors.TimeGap * factors.Absence * factors.TimeDecay * factors.Negative)
	return state.State{
		Key:        post,
		Origin:     state.OriginInferred,
		Confidence: conf,
		Timestamp:  ts,
		Provenance: state.Provenance{
			Rule:       r.Name,
			Parents:    parents,
			Confidence: conf,
			Factors:    factors,
		},
	}, true
}

// #endregion evaluate
