package render

import (
	"fmt"
	"strings"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/engine"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region report
// Report renders a completed run as a plain-text analyst report: ranked
// narratives, the state graph grouped by origin with penalty annotations,
// and the cross-narrative comparison.
func Report(res *engine.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (reference time %s)\n", res.RunID, res.Now.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "States: %d observed, %d inferred, %d hypothetical; %d rule firings\n\n",
		len(res.Store.ByOrigin(state.OriginObserved)),
		len(res.Store.ByOrigin(state.OriginInferred)),
		len(res.Store.ByOrigin(state.OriginHypothetical)),
		len(res.Fired),
	)

	b.WriteString("== Narratives ==\n")
	for i, n := range res.Narratives.Narratives {
		fmt.Fprintf(&b, "#%d %-16s score %.3f  (avg conf %.2f, coverage %.2f, %d states, %d hypothetical)\n",
			i+1, n.Name, n.Score, n.Stats.AvgConfidence, n.Stats.Coverage, len(n.States), n.Stats.Hypotheticals)
	}
	fmt.Fprintf(&b, "Recommended: %s\n\n", res.Narratives.Comparison.Recommended)

	b.WriteString("== State graph ==\n")
	writeOrigin(&b, res, state.OriginObserved, "Observed")
	writeOrigin(&b, res, state.OriginInferred, "Inferred")
	writeOrigin(&b, res, state.OriginHypothetical, "Hypothetical")

	b.WriteString("== Comparison ==\n")
	for i, n := range res.Narratives.Narratives {
		unique := res.Narratives.Comparison.Unique[n.Name]
		if len(unique) == 0 {
			continue
		}
		fmt.Fprintf(&b, "unique to #%d %s: %s\n", i+1, n.Name, joinKeys(unique))
	}
	if shared := res.Narratives.Comparison.Shared; len(shared) > 0 {
		fmt.Fprintf(&b, "shared by all: %s\n", joinKeys(shared))
	}

	return b.String()
}

func writeOrigin(b *strings.Builder, res *engine.RunResult, origin state.Origin, title string) {
	states := res.Store.ByOrigin(origin)
	if len(states) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, st := range states {
		fmt.Fprintf(b, "  %-28s %.3f", st.Key, st.Confidence)
		switch origin {
		case state.OriginInferred:
			fmt.Fprintf(b, "  via %q%s", st.Provenance.Rule, factorNote(st.Provenance.Factors))
		case state.OriginHypothetical:
			fmt.Fprintf(b, "  %s (mechanism: %s)", st.Reason, st.Mechanism)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

// factorNote annotates only the penalties that actually bit.
func factorNote(f state.PenaltyFactors) string {
	var parts []string
	if f.Violation != "" {
		parts = append(parts, f.Violation)
	}
	if f.Violation == "" && f.TimeGap < 1 {
		parts = append(parts, fmt.Sprintf("gap %.2f", f.TimeGap))
	}
	if f.Absence < 1 {
		parts = append(parts, fmt.Sprintf("absence %.2f", f.Absence))
	}
	if f.TimeDecay < 1 {
		parts = append(parts, fmt.Sprintf("decay %.2f", f.TimeDecay))
	}
	if f.Negative < 1 {
		parts = append(parts, fmt.Sprintf("negative %.2f", f.Negative))
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func joinKeys(keys []state.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// #endregion report

// #region explain
// Explanation renders a provenance chain as an indented tree-ish listing.
func Explanation(chain []engine.Step) string {
	var b strings.Builder
	for _, step := range chain {
		indent := strings.Repeat("  ", step.Depth)
		st := step.State
		switch st.Origin {
		case state.OriginObserved:
			fmt.Fprintf(&b, "%s%s  %.3f  observed at %s\n", indent, st.Key, st.Confidence, st.Timestamp.Format("15:04:05"))
		case state.OriginInferred:
			fmt.Fprintf(&b, "%s%s  %.3f  inferred via %q\n", indent, st.Key, st.Confidence, st.Provenance.Rule)
		case state.OriginHypothetical:
			fmt.Fprintf(&b, "%s%s  %.3f  hypothetical: %s (mechanism %s)\n", indent, st.Key, st.Confidence, st.Reason, st.Mechanism)
		}
	}
	return b.String()
}

// #endregion explain
