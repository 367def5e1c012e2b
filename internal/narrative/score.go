package narrative

import (
	"fmt"
	"sort"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region score
// ScoreAll fills in every narrative's stats and score. Scoring is relative
// within the set: the complexity penalty normalizes each narrative's
// inference-step count against the largest in the set.
//
//	score = wC × avg_confidence + wV × coverage
//	      + wS × (1 − complexity) + wD × (1 − hypothetical)
func ScoreAll(store *state.Store, ns []Narrative, w Weights) {
	observed := store.ByOrigin(state.OriginObserved)

	maxNonObserved := 0
	for i := range ns {
		if n := ns[i].Stats.Inferred + ns[i].Stats.Hypotheticals; n > maxNonObserved {
			maxNonObserved = n
		}
	}

	for i := range ns {
		n := &ns[i]
		if len(n.States) == 0 {
			n.Stats = Stats{}
			n.Score = 0
			continue
		}

		sum := 0.0
		for _, st := range n.States {
			sum += st.Confidence
		}
		n.Stats.AvgConfidence = sum / float64(len(n.States))
		n.Stats.Coverage = coverage(store, n, observed)
		if maxNonObserved > 0 {
			n.Stats.ComplexityPenalty = float64(n.Stats.Inferred+n.Stats.Hypotheticals) / float64(maxNonObserved)
		}
		n.Stats.HypotheticalPenalty = hypotheticalPenalty(n.Stats.Hypotheticals)

		n.Score = w.Confidence*n.Stats.AvgConfidence +
			w.Coverage*n.Stats.Coverage +
			w.Simplicity*(1-n.Stats.ComplexityPenalty) +
			w.Defensibility*(1-n.Stats.HypotheticalPenalty)
	}
}

// coverage is the fraction of the graph's observed states reachable in the
// narrative's causal closure: the included states plus every provenance
// ancestor of an included state.
func coverage(store *state.Store, n *Narrative, observed []state.State) float64 {
	if len(observed) == 0 {
		return 1.0
	}

	closure := make(map[state.Key]bool)
	var expand func(key state.Key)
	expand = func(key state.Key) {
		if closure[key] {
			return
		}
		closure[key] = true
		if st, ok := store.Get(key); ok {
			for _, pk := range st.Provenance.Parents {
				expand(pk)
			}
		}
	}
	for _, st := range n.States {
		expand(st.Key)
	}

	explained := 0
	for _, st := range observed {
		if closure[st.Key] {
			explained++
		}
	}
	return float64(explained) / float64(len(observed))
}

// hypotheticalPenalty grows super-linearly with the hypothetical count and
// saturates at 1: one hypothetical is cheap, four or more dominate the term.
func hypotheticalPenalty(h int) float64 {
	p := 0.09 * float64(h) * float64(h)
	if p > 1 {
		return 1
	}
	return p
}

// #endregion score

// #region rank
// Rank sorts narratives by descending score. Ties prefer fewer hypothetical
// states, then fewer total states, then the lexicographically smaller name.
func Rank(ns []Narrative) []Narrative {
	out := append([]Narrative(nil), ns...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Stats.Hypotheticals != b.Stats.Hypotheticals {
			return a.Stats.Hypotheticals < b.Stats.Hypotheticals
		}
		if len(a.States) != len(b.States) {
			return len(a.States) < len(b.States)
		}
		return a.Name < b.Name
	})
	return out
}

// #endregion rank

// #region compare
// Compare reports each ranked narrative's unique states (present in it but
// in no higher-ranked narrative) and the intersection shared by the whole
// set. The recommendation is the top-ranked narrative.
func Compare(ranked []Narrative) Comparison {
	cmp := Comparison{Unique: make(map[string][]state.Key)}
	if len(ranked) == 0 {
		return cmp
	}
	cmp.Recommended = ranked[0].Name

	seen := make(map[state.Key]bool)
	for i := range ranked {
		var unique []state.Key
		for _, st := range ranked[i].States {
			if !seen[st.Key] {
				unique = append(unique, st.Key)
			}
		}
		sortKeys(unique)
		cmp.Unique[ranked[i].Name] = unique
		for _, st := range ranked[i].States {
			seen[st.Key] = true
		}
	}

	counts := make(map[state.Key]int)
	for i := range ranked {
		for _, st := range ranked[i].States {
			counts[st.Key]++
		}
	}
	for k, c := range counts {
		if c == len(ranked) {
			cmp.Shared = append(cmp.Shared, k)
		}
	}
	sortKeys(cmp.Shared)
	return cmp
}

func sortKeys(ks []state.Key) {
	sort.Slice(ks, func(i, j int) bool { return ks[i].String() < ks[j].String() })
}

// #endregion compare

// #region build
// Result is the scored, ranked narrative set for one run.
type Result struct {
	Narratives []Narrative
	Comparison Comparison
}

// Build generates, scores, ranks and compares the variant family under the
// given objective. An unknown objective is a configuration error.
func Build(store *state.Store, objective Objective) (Result, error) {
	w, ok := WeightsFor(objective)
	if !ok {
		return Result{}, fmt.Errorf("narratives: unknown objective %q", objective)
	}
	ns := Generate(store)
	ScoreAll(store, ns, w)
	ranked := Rank(ns)
	return Result{Narratives: ranked, Comparison: Compare(ranked)}, nil
}

// #endregion build
