package gaps

// #region config
// Config holds the missing-step detector knobs.
type Config struct {
	// PresumedOrigin is the entity the intrusion is presumed to start from.
	// Baseline access there needs no lateral-movement explanation.
	PresumedOrigin string

	// MissingPrereqConfidence is assigned to a synthesized baseline state
	// backfilled under an observed elevated state.
	MissingPrereqConfidence float64

	// UnexplainedLateralConfidence is assigned to a synthesized
	// lateral-movement state when access to a non-origin entity has no
	// credential or network explanation on record.
	UnexplainedLateralConfidence float64
}

// DefaultConfig returns the reference detector behavior.
func DefaultConfig() Config {
	return Config{
		PresumedOrigin:               "A",
		MissingPrereqConfidence:      0.30,
		UnexplainedLateralConfidence: 0.25,
	}
}

// #endregion config
