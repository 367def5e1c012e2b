package rules

import (
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region rule
// Rule is a declarative causal template. Preconditions are an unordered AND
// set: every key must be present for the rule to fire. Rules are read-only
// configuration, validated once at load time and shared across runs.
type Rule struct {
	Name           string
	Tactic         string
	Preconditions  []state.Key
	Postconditions []state.Key
	BaseConfidence float64       // ceiling on anything this rule produces, in (0, 1]
	MaxTimeGap     time.Duration // plausible cause→effect gap before penalties sharpen
}

// #endregion rule

// #region set
// Set is a validated, immutable rule collection. Order is declaration order
// and determines the deterministic scan order of the fixpoint loop.
type Set struct {
	rules  []Rule
	byName map[string]Rule
	vocab  map[string]bool
}

// Rules returns the rules in declaration order. Callers must not mutate.
func (s *Set) Rules() []Rule {
	return s.rules
}

// ByName returns the rule with the given name, if present.
func (s *Set) ByName(name string) (Rule, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Len returns the number of rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Vocabulary reports whether a state type is part of the set's vocabulary.
func (s *Set) Vocabulary(stateType string) bool {
	return s.vocab[stateType]
}

// #endregion set
