package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/archive"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/engine"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/feed"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/narrative"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/render"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	logsPath := flag.String("logs", "", "path to JSONL telemetry log")
	feedAddr := flag.String("feed", "", "pull telemetry from a collector gRPC endpoint instead of --logs")
	sinceFlag := flag.String("since", "", "with --feed: fetch events since this RFC3339 time (default: 24h ago)")
	limit := flag.Int("limit", 1000, "with --feed: maximum events to fetch")
	rulesPath := flag.String("rules", "", "path to YAML rule file (default: built-in rule set)")
	nowFlag := flag.String("now", "", "reference time, RFC3339 (default: latest event timestamp)")
	objective := flag.String("objective", "", "scoring objective: prefer-complete | prefer-defensible")
	archivePath := flag.String("archive", "", "archive the run into this SQLite database")
	explainKey := flag.String("explain", "", "also print the provenance chain for one state (type:scope)")
	flag.Parse()

	if (*logsPath == "") == (*feedAddr == "") {
		fmt.Fprintln(os.Stderr, "usage: reconstruct --logs path/to/events.jsonl [--rules rules.yaml] [--now RFC3339] [--objective name] [--archive runs.db] [--explain type:scope]")
		fmt.Fprintln(os.Stderr, "       reconstruct --feed collector:4317 [--since RFC3339] [--limit N] [...]")
		os.Exit(2)
	}

	os.Exit(run(*logsPath, *feedAddr, *sinceFlag, *limit, *rulesPath, *nowFlag, *objective, *archivePath, *explainKey))
}

// #endregion main

// #region run

func run(logsPath, feedAddr, sinceFlag string, limit int, rulesPath, nowFlag, objective, archivePath, explainKey string) int {
	var batch signals.Batch
	if feedAddr != "" {
		var err error
		batch, err = pullFeed(feedAddr, sinceFlag, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pull feed: %v\n", err)
			return 1
		}
	} else {
		records, err := signals.ReadLogFile(logsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read logs: %v\n", err)
			return 1
		}
		batch = signals.Ingest(records)
	}
	var err error

	set := rules.Default()
	if rulesPath != "" {
		set, err = rules.LoadFile(rulesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load rules: %v\n", err)
			return 1
		}
	}

	cfg := engine.DefaultRunConfig()
	cfg.Objective = narrative.Objective(objective)
	cfg.Now, err = referenceTime(nowFlag, batch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse --now: %v\n", err)
		return 2
	}

	res, err := engine.Run(batch, set, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return 1
	}

	fmt.Print(render.Report(res))

	if explainKey != "" {
		key, err := parseKey(explainKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse --explain: %v\n", err)
			return 2
		}
		chain, err := engine.Explain(res.Store, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "explain: %v\n", err)
			return 1
		}
		fmt.Printf("\n== Provenance of %s ==\n%s", key, render.Explanation(chain))
	}

	if archivePath != "" {
		a, err := archive.Open(archivePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
			return 1
		}
		defer a.Close()
		if err := a.SaveRun(res, objective); err != nil {
			fmt.Fprintf(os.Stderr, "archive run: %v\n", err)
			return 1
		}
		fmt.Printf("\narchived as run %s\n", res.RunID)
	}

	return 0
}

func pullFeed(addr, sinceFlag string, limit int) (signals.Batch, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if sinceFlag != "" {
		t, err := time.Parse(time.RFC3339, sinceFlag)
		if err != nil {
			return signals.Batch{}, fmt.Errorf("parse --since: %w", err)
		}
		since = t.UTC()
	}

	client, err := feed.NewClient(addr)
	if err != nil {
		return signals.Batch{}, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.PullBatch(ctx, since, limit)
}

// referenceTime picks the run's "now": an explicit flag wins, otherwise the
// latest event timestamp so decay measures age within the incident, falling
// back to wall clock for an empty batch.
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

func parseKey(s string) (state.Key, error) {
	i := strings.Index(s, ":")
	if i <= 0 || i == len(s)-1 {
		return state.Key{}, fmt.Errorf("want type:scope, got %q", s)
	}
	return state.Key{Type: s[:i], Scope: s[i+1:]}, nil
}

// #endregion run
