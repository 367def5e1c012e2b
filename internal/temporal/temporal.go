package temporal

import (
	"math"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region evaluator
// Evaluator computes the time-based confidence factors for candidate
// inferences. It carries a fixed reference time so a run is deterministic
// for a given input and "now".
type Evaluator struct {
	config Config
	now    time.Time
}

// NewEvaluator creates an evaluator pinned to the given reference time.
func NewEvaluator(config Config, now time.Time) *Evaluator {
	return &Evaluator{config: config, now: now}
}

// Now returns the evaluator's reference time.
func (e *Evaluator) Now() time.Time {
	return e.now
}

// #endregion evaluator

// #region gap-penalty
// GapPenalty returns the multiplier for the elapsed time between the latest
// precondition and the postcondition, plus a label for reporting.
//
// Within the rule's max gap the decay is linear, bottoming out at a 30%
// reduction at the boundary. Beyond it the penalty is 0.5^(gap/maxGap):
// strictly decreasing per excess interval and asymptotic to zero without
// ever reaching it.
func (e *Evaluator) GapPenalty(gap, maxGap time.Duration) (float64, string) {
	if gap < 0 {
		gap = 0
	}
	if maxGap <= 0 {
		return 1.0, ""
	}
	ratio := float64(gap) / float64(maxGap)
	if ratio <= 1 {
		return 1.0 - e.config.MaxLinearPenalty*ratio, ""
	}
	return math.Pow(0.5, ratio), ViolationTimeGapExceeded
}

// #endregion gap-penalty

// #region causality
// CheckCausality compares an independently observed postcondition timestamp
// against the latest precondition time. An effect recorded strictly before
// its required cause is causally impossible as stated: the penalty collapses
// to ViolationPenalty regardless of every other factor.
//
// A zero observed timestamp means no independent observation exists; the
// check is skipped rather than treated as a violation.
func (e *Evaluator) CheckCausality(observedPost, latestPre time.Time) (float64, string, bool) {
	if observedPost.IsZero() || latestPre.IsZero() {
		return 1.0, "", false
	}
	if observedPost.Before(latestPre) {
		return e.config.ViolationPenalty, ViolationCausality, true
	}
	return 1.0, "", false
}

// #endregion causality

// #region decay
// Decay returns the age-based confidence multiplier for a state timestamp:
// 2^(-age/halfLife), floored at DecayFloor so aging alone never erases a
// fact. States from the future of the reference time do not decay.
func (e *Evaluator) Decay(ts time.Time) float64 {
	if ts.IsZero() {
		return 1.0
	}
	age := e.now.Sub(ts)
	if age <= 0 {
		return 1.0
	}
	d := math.Exp2(-float64(age) / float64(e.config.HalfLife))
	if d < e.config.DecayFloor {
		return e.config.DecayFloor
	}
	return d
}

// #endregion decay

// #region window
// Window returns all states whose timestamp falls within [center-window,
// center], in the store's insertion order. Read-only: it never touches
// confidence.
func Window(store *state.Store, center time.Time, window time.Duration) []state.State {
	if window <= 0 {
		window = DefaultConfig().Window
	}
	lo := center.Add(-window)
	var out []state.State
	for _, st := range store.All() {
		if st.Timestamp.IsZero() {
			continue
		}
		if !st.Timestamp.Before(lo) && !st.Timestamp.After(center) {
			out = append(out, st)
		}
	}
	return out
}

// #endregion window
