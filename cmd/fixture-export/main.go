package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/engine"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/narrative"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/replay"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
)

// #region main

// fixture-export runs a telemetry log through the engine once and freezes
// the outcome as a replay fixture, so later rule or scoring changes that
// shift the result show up as divergence.
func main() {
	logsPath := flag.String("logs", "", "path to JSONL telemetry log")
	rulesPath := flag.String("rules", "", "path to YAML rule file (default: built-in rule set)")
	nowFlag := flag.String("now", "", "reference time, RFC3339 (default: latest event timestamp)")
	objective := flag.String("objective", "", "scoring objective to pin")
	desc := flag.String("desc", "", "fixture description")
	outPath := flag.String("out", "", "output fixture path")
	tolerance := flag.Float64("tolerance", 0.01, "confidence tolerance baked into expectations")
	flag.Parse()

	if *logsPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --logs events.jsonl --out fixture.json [--rules rules.yaml] [--now RFC3339] [--objective name] [--desc text] [--tolerance 0.01]")
		os.Exit(2)
	}

	os.Exit(run(*logsPath, *rulesPath, *nowFlag, *objective, *desc, *outPath, *tolerance))
}

// #endregion main

// #region export

func run(logsPath, rulesPath, nowFlag, objective, desc, outPath string, tolerance float64) int {
	records, err := signals.ReadLogFile(logsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read logs: %v\n", err)
		return 1
	}
	batch := signals.Ingest(records)

	set := rules.Default()
	if rulesPath != "" {
		set, err = rules.LoadFile(rulesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load rules: %v\n", err)
			return 1
		}
	}

	now, err := referenceTime(nowFlag, batch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse --now: %v\n", err)
		return 2
	}

	cfg := engine.DefaultRunConfig()
	cfg.Now = now
	cfg.Objective = narrative.Objective(objective)
	res, err := engine.Run(batch, set, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}

	if desc == "" {
		desc = fmt.Sprintf("exported from %s", logsPath)
	}
	f := &replay.Fixture{
		Description: desc,
		Now:         now.Unix(),
		Objective:   objective,
		Records:     records,
		Expect:      expectations(res, tolerance),
	}

	if err := replay.SaveFixture(outPath, f); err != nil {
		fmt.Fprintf(os.Stderr, "save fixture: %v\n", err)
		return 1
	}
	fmt.Printf("wrote %s: %d records, %d expected states, recommended %q\n",
		outPath, len(records), len(f.Expect.States), f.Expect.Recommended)
	return 0
}

// expectations freezes the run outcome, widening each confidence by the
// tolerance so float drift across platforms does not flag divergence.
func expectations(res *engine.RunResult, tolerance float64) replay.Expectations {
	exp := replay.Expectations{
		StateCount:  res.Store.Len(),
		Recommended: res.Narratives.Comparison.Recommended,
	}
	for _, n := range res.Narratives.Narratives {
		exp.Ranking = append(exp.Ranking, n.Name)
	}
	for _, st := range res.Store.All() {
		lo, hi := st.Confidence-tolerance, st.Confidence+tolerance
		if lo < 0 {
			lo = 0
		}
		if hi > 1 {
			hi = 1
		}
		exp.States = append(exp.States, replay.ExpectedState{
			Type:          st.Key.Type,
			Scope:         st.Key.Scope,
			Origin:        string(st.Origin),
			Rule:          st.Provenance.Rule,
			MinConfidence: lo,
			MaxConfidence: hi,
		})
	}
	return exp
}

func referenceTime(nowFlag string, batch signals.Batch) (time.Time, error) {
	if nowFlag != "" {
		t, err := time.Parse(time.RFC3339, nowFlag)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	var latest time.Time
	for _, ev := range batch.Events {
		if ev.Timestamp.After(latest) {
			latest = ev.Timestamp
		}
	}
	if latest.IsZero() {
		return time.Now().UTC(), nil
	}
	return latest, nil
}

// #endregion export
