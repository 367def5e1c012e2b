package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/evidence"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/gaps"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/narrative"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/temporal"
)

// #region run-config
// RunConfig collects every knob for one reasoning run. The zero value of
// Now means wall clock; everything else zero-values to the reference
// defaults through DefaultRunConfig.
type RunConfig struct {
	Engine    Config
	Temporal  temporal.Config
	Evidence  evidence.Config
	Gaps      gaps.Config
	Objective narrative.Objective
	Now       time.Time
}

// DefaultRunConfig returns the reference run configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Engine:   DefaultConfig(),
		Temporal: temporal.DefaultConfig(),
		Evidence: evidence.DefaultConfig(),
		Gaps:     gaps.DefaultConfig(),
	}
}

// #endregion run-config

// #region run-result
// RunResult is the complete output of one run: the frozen state graph, the
// rule firings in order, the synthesized hypotheticals, and the ranked
// narrative set.
type RunResult struct {
	RunID         string
	Now           time.Time
	Store         *state.Store
	Fired         []Firing
	Hypotheticals []state.State
	Narratives    narrative.Result
}

// #endregion run-result

// #region run
// Run is the single entry point: a one-shot, side-effect-free
// transformation from an event batch to a finished state graph plus
// narrative set. Deterministic for a fixed batch, rule set and Now.
func Run(batch signals.Batch, set *rules.Set, cfg RunConfig) (*RunResult, error) {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	store := state.NewStore()
	for _, ev := range batch.Events {
		if _, err := store.Observe(ev); err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
	}

	pen := evidence.NewPenalizer(cfg.Evidence)
	for _, sig := range batch.Signals {
		pen.RecordSignal(sig.EventType, sig.Scope)
	}
	for _, key := range batch.Negative {
		pen.RecordNegative(key)
	}

	eng := New(set, temporal.NewEvaluator(cfg.Temporal, now), pen, cfg.Engine)
	fired, err := eng.Infer(store)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	hyps, err := gaps.Detect(store, cfg.Gaps)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	store.Freeze()

	narratives, err := narrative.Build(store, cfg.Objective)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	return &RunResult{
		RunID:         uuid.NewString(),
		Now:           now,
		Store:         store,
		Fired:         fired,
		Hypotheticals: hyps,
		Narratives:    narratives,
	}, nil
}

// #endregion run
