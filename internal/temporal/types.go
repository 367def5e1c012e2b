package temporal

import "time"

// #region violations
// Violation labels attached to gap-penalty results for reporting.
const (
	ViolationCausality       = "causality_violation"
	ViolationTimeGapExceeded = "time_gap_exceeded"
)

// #endregion violations

// #region config
// Config holds the temporal scoring knobs.
type Config struct {
	HalfLife         time.Duration // age at which decay halves confidence
	DecayFloor       float64       // decay never drops below this
	Window           time.Duration // default sliding-window width
	ViolationPenalty float64       // near-zero factor for causal impossibility
	MaxLinearPenalty float64       // reduction at the max-gap boundary
}

// DefaultConfig returns the reference behavior: 1h half-life, 0.3 floor,
// 2h window, 0.01 on causality violation, 30% linear reduction.
func DefaultConfig() Config {
	return Config{
		HalfLife:         time.Hour,
		DecayFloor:       0.3,
		Window:           2 * time.Hour,
		ViolationPenalty: 0.01,
		MaxLinearPenalty: 0.3,
	}
}

// #endregion config
