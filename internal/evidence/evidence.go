package evidence

import (
	"math"
	"sort"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region expected
// defaultExpected maps a state type to the telemetry event types that
// conventionally co-occur with it. An inferred state of one of these types
// with none of its corroborating signals on record is penalized per missing
// signal.
var defaultExpected = map[string][]string{
	"credential_dumped": {"lsass_access", "proc_dump"},
	"admin_access":      {"sudo", "privilege_escalation"},
	"network_access":    {"smb_session", "rdp_session"},
}

// #endregion expected

// #region penalizer
// Penalizer computes the absence-of-evidence and negative-evidence factors
// folded into every inferred state's confidence. It is populated from the
// raw telemetry during ingestion and read-only during the reasoning run.
type Penalizer struct {
	config   Config
	expected map[string][]string
	seen     map[signalKey]bool
	negative map[state.Key]int
}

type signalKey struct {
	eventType string
	scope     string
}

// NewPenalizer creates a penalizer with the reference expected-evidence
// table.
func NewPenalizer(config Config) *Penalizer {
	return &Penalizer{
		config:   config,
		expected: defaultExpected,
		seen:     make(map[signalKey]bool),
		negative: make(map[state.Key]int),
	}
}

// #endregion penalizer

// #region record
// RecordSignal registers a raw telemetry event type seen for a scope. Every
// ingested log line goes through here so absence checks can consult the full
// record, not just the lines that became states.
func (p *Penalizer) RecordSignal(eventType, scope string) {
	if eventType == "" {
		return
	}
	p.seen[signalKey{eventType, scope}] = true
}

// RecordNegative registers explicit contradicting evidence against a state
// key (a failed login against an access claim, a firewall block against a
// network path).
func (p *Penalizer) RecordNegative(key state.Key) {
	p.negative[key]++
}

// #endregion record

// #region absence
// Absence returns the absence-of-evidence factor for a candidate state.
// Each expected corroborating signal missing for the candidate's scope
// multiplies in one AbsencePenalty; a type with no expectations, or with
// every expected signal present, pays nothing.
func (p *Penalizer) Absence(key state.Key) float64 {
	expected, ok := p.expected[key.Type]
	if !ok {
		return 1.0
	}
	missing := 0
	for _, et := range expected {
		if !p.seen[signalKey{et, key.Scope}] {
			missing++
		}
	}
	if missing == 0 {
		return 1.0
	}
	return math.Pow(p.config.AbsencePenalty, float64(missing))
}

// #endregion absence

// #region negative
// Negative returns the contradicting-evidence factor: NegativePenalty per
// recorded contradiction, 1.0 when nothing contradicts the candidate.
func (p *Penalizer) Negative(key state.Key) float64 {
	n := p.negative[key]
	if n == 0 {
		return 1.0
	}
	return math.Pow(p.config.NegativePenalty, float64(n))
}

// NegativeKeys returns the contradicted keys in sorted display order, for
// reporting.
func (p *Penalizer) NegativeKeys() []state.Key {
	out := make([]state.Key, 0, len(p.negative))
	for k := range p.negative {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// #endregion negative
