package archive

import (
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region records
// RunSummary is one row of the run index.
type RunSummary struct {
	RunID         string
	CreatedAt     time.Time
	ReferenceTime time.Time
	Objective     string
	Recommended   string
	StateCount    int
}

// StoredState is a persisted state row, enough to re-render a report
// without re-running the engine.
type StoredState struct {
	Key        state.Key
	Origin     state.Origin
	Confidence float64
	Timestamp  time.Time
	Rule       string
	Reason     string
	Mechanism  string
	Factors    state.PenaltyFactors
}

// StoredNarrative is a persisted narrative row, in rank order.
type StoredNarrative struct {
	Rank          int
	Name          string
	Score         float64
	StateCount    int
	Hypotheticals int
}

// RunRecord is a fully loaded archived run.
type RunRecord struct {
	Summary    RunSummary
	States     []StoredState
	Narratives []StoredNarrative
}

// ChainStep is one node of an archived provenance walk.
type ChainStep struct {
	Key   state.Key
	Depth int
}

// #endregion records
