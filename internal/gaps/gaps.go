package gaps

import (
	"fmt"
	"strings"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region baseline
// baselineFor maps an elevated state type to the baseline type it presumes.
// An elevated state with no baseline on record gets the baseline backfilled
// as a hypothetical.
var baselineFor = map[string]string{
	"admin_access": "user_access",
}

// #endregion baseline

// #region detect
// Detect runs once over a post-fixpoint store and synthesizes hypothetical
// states for unexplained gaps. Hypotheticals are terminal: they are written
// to the store for display and narrative selection but never feed another
// inference pass.
//
// Two detectors:
//
//   - missing prerequisite: an elevated state whose baseline is absent gets
//     the baseline backfilled at MissingPrereqConfidence
//   - unexplained lateral movement: baseline access to an entity other than
//     the presumed origin, with neither a credential compromise nor a
//     network path into that entity on record, gets a generic
//     lateral_movement:unknown_to_<entity> state at
//     UnexplainedLateralConfidence with mechanism "unknown"
func Detect(store *state.Store, config Config) ([]state.State, error) {
	var added []state.State

	commit := func(st state.State) error {
		changed, err := store.Commit(st)
		if err != nil {
			return fmt.Errorf("synthesize %s: %w", st.Key, err)
		}
		if changed {
			added = append(added, st)
		}
		return nil
	}

	snapshot := store.All()

	for _, st := range snapshot {
		baseType, elevated := baselineFor[st.Key.Type]
		if !elevated || st.Confidence <= state.MinConfidence {
			continue
		}
		baseline := state.Key{Type: baseType, Scope: st.Key.Scope}
		if store.Has(baseline) {
			continue
		}
		if err := commit(state.State{
			Key:        baseline,
			Origin:     state.OriginHypothetical,
			Confidence: config.MissingPrereqConfidence,
			Timestamp:  st.Timestamp,
			Reason:     fmt.Sprintf("Required for observed %s", st.Key),
			Mechanism:  "unknown",
		}); err != nil {
			return added, err
		}
	}

	for _, st := range snapshot {
		if st.Key.Type != "user_access" || st.Confidence <= state.MinConfidence {
			continue
		}
		entity := st.Key.Scope
		if entity == config.PresumedOrigin {
			continue
		}
		if hasCredentialCompromise(snapshot) || hasNetworkPathInto(snapshot, entity) {
			continue
		}
		if err := commit(state.State{
			Key:        state.Key{Type: "lateral_movement", Scope: "unknown_to_" + entity},
			Origin:     state.OriginHypothetical,
			Confidence: config.UnexplainedLateralConfidence,
			Timestamp:  st.Timestamp,
			Reason:     fmt.Sprintf("No credential or network path explains access to %s", entity),
			Mechanism:  "unknown",
		}); err != nil {
			return added, err
		}
	}

	return added, nil
}

// #endregion detect

// #region predicates
func hasCredentialCompromise(snapshot []state.State) bool {
	for _, st := range snapshot {
		if st.Key.Type == "credential_dumped" && st.Confidence > state.MinConfidence {
			return true
		}
	}
	return false
}

func hasNetworkPathInto(snapshot []state.State, entity string) bool {
	suffix := "_to_" + entity
	for _, st := range snapshot {
		if st.Key.Type == "network_access" && st.Confidence > state.MinConfidence && strings.HasSuffix(st.Key.Scope, suffix) {
			return true
		}
	}
	return false
}

// #endregion predicates
