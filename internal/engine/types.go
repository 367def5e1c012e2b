package engine

import (
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region config
// Config bounds the forward-chaining loop.
type Config struct {
	// PassMultiplier caps the fixpoint at PassMultiplier × rule-count full
	// passes. Cyclic rule definitions stabilize within the improvement
	// epsilon well before the cap; the cap exists so they cannot spin.
	PassMultiplier int
}

// DefaultConfig returns the reference loop bound.
func DefaultConfig() Config {
	return Config{PassMultiplier: 4}
}

// #endregion config

// #region firing
// Firing records one rule application that changed the store: a new key or
// an improved confidence for an existing one.
type Firing struct {
	Rule       string
	Key        state.Key
	Confidence float64
	Pass       int
}

// #endregion firing
