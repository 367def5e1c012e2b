package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/replay"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to a single fixture JSON")
	dirPath := flag.String("dir", "", "replay every *.json fixture in a directory")
	rulesPath := flag.String("rules", "", "path to YAML rule file (default: built-in rule set)")
	flag.Parse()

	if (*fixturePath == "" && *dirPath == "") || (*fixturePath != "" && *dirPath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--rules rules.yaml]")
		fmt.Fprintln(os.Stderr, "       replay --dir path/to/fixtures/ [--rules rules.yaml]")
		os.Exit(2)
	}

	set := rules.Default()
	if *rulesPath != "" {
		loaded, err := rules.LoadFile(*rulesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load rules: %v\n", err)
			os.Exit(2)
		}
		set = loaded
	}

	paths := []string{*fixturePath}
	if *dirPath != "" {
		var err error
		paths, err = filepath.Glob(filepath.Join(*dirPath, "*.json"))
		if err != nil || len(paths) == 0 {
			fmt.Fprintf(os.Stderr, "no fixtures in %s\n", *dirPath)
			os.Exit(2)
		}
		sort.Strings(paths)
	}

	var fixtures []*replay.Fixture
	for _, p := range paths {
		f, err := replay.LoadFixture(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
			os.Exit(2)
		}
		fixtures = append(fixtures, f)
	}

	results, failed, err := replay.ReplayAll(fixtures, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	for i, res := range results {
		status := "OK"
		if !res.Passed() {
			status = "DIVERGED"
		}
		fmt.Printf("%-8s %s (%s)\n", status, res.Fixture.Description, filepath.Base(paths[i]))
		for _, m := range res.Mismatches {
			fmt.Printf("         - %s\n", m)
		}
	}
	fmt.Printf("\nSummary: %d fixtures, %d match, %d diverge\n", len(results), len(results)-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// #endregion main
