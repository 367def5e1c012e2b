package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// telemetry batch plus the results a run over it must reproduce.
type Fixture struct {
	Description string           `json:"description"`
	Now         int64            `json:"now"` // reference time, unix seconds
	Objective   string           `json:"objective,omitempty"`
	Records     []signals.Record `json:"records"`
	Expect      Expectations     `json:"expect"`
}

// Expectations pins down the parts of a run the fixture cares about. Empty
// fields are not checked.
type Expectations struct {
	States      []ExpectedState `json:"states,omitempty"`
	Ranking     []string        `json:"ranking,omitempty"` // narrative names, best first
	Recommended string          `json:"recommended,omitempty"`
	StateCount  int             `json:"state_count,omitempty"`
}

// ExpectedState bounds one state in the finished graph.
type ExpectedState struct {
	Type          string  `json:"type"`
	Scope         string  `json:"scope"`
	Origin        string  `json:"origin,omitempty"`
	Rule          string  `json:"rule,omitempty"`
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-loader
