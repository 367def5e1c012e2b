package evidence

// #region config
// Config holds the evidence penalty factors. Both are multipliers in (0, 1].
type Config struct {
	AbsencePenalty  float64 // per missing expected corroborating signal
	NegativePenalty float64 // per explicit contradicting observation
}

// DefaultConfig returns the reference behavior: 0.50 per missing signal,
// 0.80 per contradiction.
func DefaultConfig() Config {
	return Config{
		AbsencePenalty:  0.50,
		NegativePenalty: 0.80,
	}
}

// #endregion config
