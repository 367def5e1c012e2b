package state

import (
	"fmt"
	"sort"
)

// #region constants
const (
	// HypotheticalCeiling caps hypothetical-state confidence regardless of
	// what a detector computed.
	HypotheticalCeiling = 0.30

	// MinConfidence is the epsilon below which a state is treated as absent
	// when matching rule preconditions.
	MinConfidence = 1e-6

	// ImprovementEpsilon is the minimum confidence gain for a re-derivation
	// to replace the stored one. Keeps cyclic rule definitions from spinning.
	ImprovementEpsilon = 1e-9
)

// #endregion constants

// #region store-struct
// Store holds the evolving fact set for a single reasoning run. It is
// exclusively owned by that run: observed states go in first, inference and
// missing-step synthesis only add, and Freeze makes it read-only before
// narrative generation.
type Store struct {
	states map[Key]*State
	order  []Key
	nextID int
	frozen bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{states: make(map[Key]*State)}
}

// #endregion store-struct

// #region observe
// Observe inserts an observed state for the event at full confidence.
// The first observation of a key wins; later observations of the same key
// are ignored and reported as not inserted.
func (s *Store) Observe(ev Event) (bool, error) {
	if s.frozen {
		return false, fmt.Errorf("observe %s: store is frozen", ev.Key())
	}
	key := ev.Key()
	if key.Type == "" {
		return false, fmt.Errorf("observe: empty state type")
	}
	if _, exists := s.states[key]; exists {
		return false, nil
	}
	s.nextID++
	s.states[key] = &State{
		Key:        key,
		Origin:     OriginObserved,
		Confidence: 1.0,
		Timestamp:  ev.Timestamp,
		EventID:    s.nextID,
	}
	s.order = append(s.order, key)
	return true, nil
}

// #endregion observe

// #region commit
// Commit offers an inferred or hypothetical state to the store and enforces
// the store invariants:
//
//   - confidence is clamped to [0, 1] before anything else looks at it
//   - hypothetical confidence is additionally capped at HypotheticalCeiling
//   - observed states are never overwritten or downgraded; a derivation
//     against an observed key is recorded as alternate provenance only
//   - for contested keys the highest-confidence derivation wins and the
//     loser is kept as an alternate
//
// Returns true when the store changed in a way that can enable further
// inference (a new key, or an improved confidence).
func (s *Store) Commit(st State) (bool, error) {
	if s.frozen {
		return false, fmt.Errorf("commit %s: store is frozen", st.Key)
	}
	if st.Key.Type == "" {
		return false, fmt.Errorf("commit: empty state type")
	}
	if st.Origin == OriginObserved {
		return false, fmt.Errorf("commit %s: observed states enter via Observe", st.Key)
	}

	st.Confidence = clamp01(st.Confidence)
	if st.Origin == OriginHypothetical && st.Confidence > HypotheticalCeiling {
		st.Confidence = HypotheticalCeiling
	}
	st.Provenance.Confidence = st.Confidence

	existing, ok := s.states[st.Key]
	if !ok {
		s.nextID++
		st.EventID = s.nextID
		stored := st
		s.states[st.Key] = &stored
		s.order = append(s.order, st.Key)
		return true, nil
	}

	// Observed wins unconditionally; keep the derivation for explanation.
	if existing.Origin == OriginObserved {
		recordAlternate(existing, st.Provenance)
		return false, nil
	}

	if st.Confidence > existing.Confidence+ImprovementEpsilon {
		st.EventID = existing.EventID
		st.Alternates = append(append([]Provenance{}, existing.Alternates...), existing.Provenance)
		*existing = st
		return true, nil
	}

	recordAlternate(existing, st.Provenance)
	return false, nil
}

// recordAlternate keeps a losing derivation for explanation, once. The
// fixpoint loop re-offers identical derivations every pass; duplicates carry
// no information.
func recordAlternate(existing *State, p Provenance) {
	if sameDerivation(existing.Provenance, p) {
		return
	}
	for _, a := range existing.Alternates {
		if sameDerivation(a, p) {
			return
		}
	}
	existing.Alternates = append(existing.Alternates, p)
}

func sameDerivation(a, b Provenance) bool {
	return a.Rule == b.Rule && a.Confidence == b.Confidence
}

// #endregion commit

// #region queries
// Get returns the state stored for key, if any.
func (s *Store) Get(key Key) (State, bool) {
	st, ok := s.states[key]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Has reports whether key is present with usable confidence. Zero-confidence
// states are treated as absent.
func (s *Store) Has(key Key) bool {
	st, ok := s.states[key]
	return ok && st.Confidence > MinConfidence
}

// All returns every state in insertion order.
func (s *Store) All() []State {
	out := make([]State, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.states[k])
	}
	return out
}

// ByOrigin returns all states with the given origin, in insertion order.
func (s *Store) ByOrigin(origin Origin) []State {
	var out []State
	for _, k := range s.order {
		if st := s.states[k]; st.Origin == origin {
			out = append(out, *st)
		}
	}
	return out
}

// Keys returns all keys sorted by the type:scope display form. Used where a
// deterministic iteration order is needed independent of insertion order.
func (s *Store) Keys() []Key {
	out := make([]Key, len(s.order))
	copy(out, s.order)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of stored states.
func (s *Store) Len() int {
	return len(s.order)
}

// #endregion queries

// #region freeze
// Freeze makes the store read-only. Narrative generation reads a frozen
// graph; any later Observe or Commit is an error.
func (s *Store) Freeze() {
	s.frozen = true
}

// Frozen reports whether the store has been frozen.
func (s *Store) Frozen() bool {
	return s.frozen
}

// #endregion freeze

// #region clamp
// clamp01 restricts v to [0, 1]. Chained multiplicative penalties can drift
// out of range through float error; every stored confidence passes through
// here first.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 is the exported invariant clamp used by the engine before a state
// is committed.
func Clamp01(v float64) float64 {
	return clamp01(v)
}

// #endregion clamp
