package replay

import (
	"fmt"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/engine"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/narrative"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region result
// Result is the outcome of replaying one fixture: the fresh run plus every
// expectation it failed to reproduce.
type Result struct {
	Fixture    *Fixture
	Run        *engine.RunResult
	Mismatches []string
}

// Passed reports whether the run reproduced the fixture.
func (r *Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// #endregion result

// #region replay
// Replay runs the fixture's records through a full reasoning run pinned to
// the fixture's reference time and diffs the outcome against its
// expectations. A mismatch is regression evidence, not an error; the error
// return covers run failures only.
func Replay(f *Fixture, set *rules.Set) (*Result, error) {
	cfg := engine.DefaultRunConfig()
	cfg.Now = time.Unix(f.Now, 0).UTC()
	cfg.Objective = narrative.Objective(f.Objective)

	run, err := engine.Run(signals.Ingest(f.Records), set, cfg)
	if err != nil {
		return nil, fmt.Errorf("replay %q: %w", f.Description, err)
	}

	res := &Result{Fixture: f, Run: run}
	res.checkStates()
	res.checkNarratives()
	return res, nil
}

func (r *Result) checkStates() {
	f := r.Fixture
	if f.Expect.StateCount > 0 && r.Run.Store.Len() != f.Expect.StateCount {
		r.mismatch("state count = %d, fixture expects %d", r.Run.Store.Len(), f.Expect.StateCount)
	}

	for _, want := range f.Expect.States {
		key := state.Key{Type: want.Type, Scope: want.Scope}
		st, ok := r.Run.Store.Get(key)
		if !ok {
			r.mismatch("state %s missing", key)
			continue
		}
		if want.Origin != "" && st.Origin != state.Origin(want.Origin) {
			r.mismatch("state %s origin = %s, fixture expects %s", key, st.Origin, want.Origin)
		}
		if want.Rule != "" && st.Provenance.Rule != want.Rule {
			r.mismatch("state %s rule = %q, fixture expects %q", key, st.Provenance.Rule, want.Rule)
		}
		if st.Confidence < want.MinConfidence || st.Confidence > want.MaxConfidence {
			r.mismatch("state %s confidence = %.4f, fixture expects [%.4f, %.4f]",
				key, st.Confidence, want.MinConfidence, want.MaxConfidence)
		}
	}
}

func (r *Result) checkNarratives() {
	f := r.Fixture
	ranked := r.Run.Narratives.Narratives

	if len(f.Expect.Ranking) > 0 {
		if len(f.Expect.Ranking) > len(ranked) {
			r.mismatch("ranking has %d narratives, fixture expects %d", len(ranked), len(f.Expect.Ranking))
			return
		}
		for i, name := range f.Expect.Ranking {
			if ranked[i].Name != name {
				r.mismatch("rank %d = %s, fixture expects %s", i+1, ranked[i].Name, name)
			}
		}
	}

	if f.Expect.Recommended != "" && r.Run.Narratives.Comparison.Recommended != f.Expect.Recommended {
		r.mismatch("recommended = %s, fixture expects %s",
			r.Run.Narratives.Comparison.Recommended, f.Expect.Recommended)
	}
}

func (r *Result) mismatch(format string, args ...any) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

// #endregion replay

// #region suite
// ReplayAll replays a fixture list and returns the per-fixture results plus
// the failing count.
func ReplayAll(fixtures []*Fixture, set *rules.Set) ([]*Result, int, error) {
	var results []*Result
	failed := 0
	for _, f := range fixtures {
		res, err := Replay(f, set)
		if err != nil {
			return results, failed, err
		}
		if !res.Passed() {
			failed++
		}
		results = append(results, res)
	}
	return results, failed, nil
}

// #endregion suite
