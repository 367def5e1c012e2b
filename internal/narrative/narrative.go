package narrative

import (
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region generate
// Generate builds the fixed variant family over a completed state graph.
// The graph is read-only from here on; selection never recomputes
// confidence. An empty graph yields only the trivial minimal narrative.
func Generate(store *state.Store) []Narrative {
	all := store.All()
	if len(all) == 0 {
		return []Narrative{{Name: VariantMinimal}}
	}

	depths := provenanceDepths(store)

	selections := []struct {
		name    string
		include func(state.State) bool
	}{
		{VariantFull, func(state.State) bool { return true }},
		{VariantConservative, func(st state.State) bool {
			return st.Origin != state.OriginHypothetical
		}},
		{VariantHighConfidence, func(st state.State) bool {
			return st.Confidence > HighConfidenceThreshold
		}},
		{VariantDirect, func(st state.State) bool {
			switch st.Origin {
			case state.OriginObserved:
				return true
			case state.OriginInferred:
				d, ok := depths[st.Key]
				return ok && d <= 1
			}
			return false
		}},
		{VariantMinimal, func(st state.State) bool {
			return st.Origin == state.OriginObserved
		}},
	}

	out := make([]Narrative, 0, len(selections))
	for _, sel := range selections {
		var n Narrative
		n.Name = sel.name
		for _, st := range all {
			if !sel.include(st) {
				continue
			}
			n.States = append(n.States, st)
			switch st.Origin {
			case state.OriginObserved:
				n.Stats.Observed++
			case state.OriginInferred:
				n.Stats.Inferred++
			case state.OriginHypothetical:
				n.Stats.Hypotheticals++
			}
		}
		out = append(out, n)
	}
	return out
}

// #endregion generate

// #region depth
// provenanceDepths computes each state's inference distance from observed
// ground: observed states are 0, an inferred state is 1 + the deepest of
// its parents. Hypothetical states and cyclic derivations have no defined
// depth and are omitted.
func provenanceDepths(store *state.Store) map[state.Key]int {
	depths := make(map[state.Key]int)
	walking := make(map[state.Key]bool)

	var walk func(key state.Key) (int, bool)
	walk = func(key state.Key) (int, bool) {
		if d, ok := depths[key]; ok {
			return d, true
		}
		if walking[key] {
			return 0, false
		}
		st, ok := store.Get(key)
		if !ok || st.Origin == state.OriginHypothetical {
			return 0, false
		}
		if st.Origin == state.OriginObserved {
			depths[key] = 0
			return 0, true
		}
		walking[key] = true
		defer delete(walking, key)

		deepest := 0
		for _, pk := range st.Provenance.Parents {
			d, ok := walk(pk)
			if !ok {
				return 0, false
			}
			if d > deepest {
				deepest = d
			}
		}
		depths[key] = deepest + 1
		return deepest + 1, true
	}

	for _, st := range store.All() {
		walk(st.Key)
	}
	return depths
}

// #endregion depth
