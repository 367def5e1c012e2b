package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/archive"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the run archive database")
	last := flag.Int("last", 20, "list the N most recent runs")
	runID := flag.String("run", "", "show one archived run in full")
	chainKey := flag.String("chain", "", "walk archived provenance from a state (type:scope, needs --run)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" || (*chainKey != "" && *runID == "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --db runs.db [--last N] [--run id] [--chain type:scope] [--json]")
		os.Exit(2)
	}

	a, err := archive.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	switch {
	case *chainKey != "":
		err = runChainMode(a, *runID, *chainKey, *jsonOut)
	case *runID != "":
		err = runDetailMode(a, *runID, *jsonOut)
	default:
		err = runListMode(a, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(a *archive.Archive, last int, jsonOut bool) error {
	runs, err := a.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs archived")
		return nil
	}
	if jsonOut {
		return printJSON(runs)
	}

	fmt.Printf("%-38s %-20s %-18s %-8s %s\n", "Run", "Created", "Recommended", "States", "Objective")
	for _, r := range runs {
		obj := r.Objective
		if obj == "" {
			obj = "default"
		}
		fmt.Printf("%-38s %-20s %-18s %-8d %s\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Recommended, r.StateCount, obj)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(a *archive.Archive, runID string, jsonOut bool) error {
	rec, err := a.GetRun(runID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(rec)
	}

	fmt.Printf("Run:         %s\n", rec.Summary.RunID)
	fmt.Printf("Created:     %s\n", rec.Summary.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Reference:   %s\n", rec.Summary.ReferenceTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("Recommended: %s\n", rec.Summary.Recommended)

	fmt.Printf("\nNarratives:\n")
	for _, n := range rec.Narratives {
		fmt.Printf("  #%d %-16s score %.3f  (%d states, %d hypothetical)\n",
			n.Rank, n.Name, n.Score, n.StateCount, n.Hypotheticals)
	}

	fmt.Printf("\nStates:\n")
	for _, st := range rec.States {
		fmt.Printf("  %-28s %-12s %.3f", st.Key, st.Origin, st.Confidence)
		if st.Rule != "" {
			fmt.Printf("  via %q", st.Rule)
		}
		if st.Reason != "" {
			fmt.Printf("  %s", st.Reason)
		}
		fmt.Println()
	}
	return nil
}

// #endregion detail-mode

// #region chain-mode

func runChainMode(a *archive.Archive, runID, chainKey string, jsonOut bool) error {
	key, err := parseKey(chainKey)
	if err != nil {
		return err
	}
	chain, err := a.Chain(runID, key, 10)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(chain)
	}
	for _, step := range chain {
		fmt.Printf("%s%s\n", strings.Repeat("  ", step.Depth), step.Key)
	}
	return nil
}

// #endregion chain-mode

// #region output

func parseKey(s string) (state.Key, error) {
	i := strings.Index(s, ":")
	if i <= 0 || i == len(s)-1 {
		return state.Key{}, fmt.Errorf("want type:scope, got %q", s)
	}
	return state.Key{Type: s[:i], Scope: s[i+1:]}, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
