package engine

import (
	"fmt"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region step
// Step is one state in a provenance chain, with its distance from the
// explained root.
type Step struct {
	State state.State
	Depth int
}

// #endregion step

// #region explain
// Explain returns the provenance chain behind a state: the state itself at
// depth 0, then its winning-derivation parents breadth-first. Each key is
// visited once, so cyclic derivations terminate. Observed states are leaves
// with empty provenance; hypothetical states are leaves carrying their
// reason and mechanism.
func Explain(store *state.Store, key state.Key) ([]Step, error) {
	root, ok := store.Get(key)
	if !ok {
		return nil, fmt.Errorf("explain %s: no such state", key)
	}

	visited := map[state.Key]bool{key: true}
	chain := []Step{{State: root, Depth: 0}}
	frontier := []Step{chain[0]}
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, step := range frontier {
			for _, pk := range step.State.Provenance.Parents {
				if visited[pk] {
					continue
				}
				visited[pk] = true
				parent, ok := store.Get(pk)
				if !ok {
					// A parent can be missing only if the store was built
					// outside a run; record nothing rather than fail.
					continue
				}
				s := Step{State: parent, Depth: step.Depth + 1}
				chain = append(chain, s)
				next = append(next, s)
			}
		}
		frontier = next
	}
	return chain, nil
}

// #endregion explain
