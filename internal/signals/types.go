package signals

import (
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region record
// Record is one parsed telemetry log line. Field presence depends on the
// event type: host events carry Host, network events carry Src/Dst.
type Record struct {
	EventType string `json:"event_type"`
	Host      string `json:"host,omitempty"`
	Src       string `json:"src,omitempty"`
	Dst       string `json:"dst,omitempty"`
	Privilege string `json:"privilege,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

// #endregion record

// #region batch
// Batch is the extraction result handed to the engine: typed events, keys
// contradicted by negative signals, and the full corroborating-signal index
// (every log line, including ones that produced no state).
type Batch struct {
	Events   []state.Event
	Negative []state.Key
	Signals  []Signal
}

// Signal is one (event type, scope) corroboration entry.
type Signal struct {
	EventType string
	Scope     string
}

// #endregion batch
