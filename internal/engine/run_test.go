package engine

import (
	"testing"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/narrative"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/rules"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

func TestRunEndToEnd(t *testing.T) {
	base := ts(0).Unix()
	batch := signals.Ingest([]signals.Record{
		{EventType: "login", Host: "A", Privilege: "user", Timestamp: base},
		{EventType: "sudo", Host: "A", Timestamp: base + 60},
		{EventType: "lsass_access", Host: "A", Timestamp: base + 120},
		{EventType: "smb_session", Src: "A", Dst: "B", Timestamp: base + 180},
	})

	cfg := DefaultRunConfig()
	cfg.Now = ts(180)
	res, err := Run(batch, rules.Default(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Fatal("empty run ID")
	}
	if !res.Store.Frozen() {
		t.Fatal("store not frozen after run")
	}

	// Observed layer straight from telemetry.
	for _, key := range []state.Key{
		{Type: "user_access", Scope: "A"},
		{Type: "admin_access", Scope: "A"},
		{Type: "credential_dumped", Scope: "A"},
		{Type: "network_access", Scope: "A_to_B"},
	} {
		st, ok := res.Store.Get(key)
		if !ok || st.Origin != state.OriginObserved {
			t.Fatalf("expected %s observed", key)
		}
	}

	// The lateral rule completes the chain onto B.
	uB, ok := res.Store.Get(state.Key{Type: "user_access", Scope: "B"})
	if !ok || uB.Origin != state.OriginInferred {
		t.Fatal("user_access:B not inferred")
	}
	if uB.Provenance.Rule != "Lateral Movement A_to_B" {
		t.Fatalf("user_access:B rule = %q", uB.Provenance.Rule)
	}
	if uB.Confidence <= 0 || uB.Confidence > 0.6 {
		t.Fatalf("user_access:B confidence = %v, want in (0, 0.6]", uB.Confidence)
	}

	if len(res.Narratives.Narratives) != 5 {
		t.Fatalf("got %d narratives, want 5", len(res.Narratives.Narratives))
	}
	if res.Narratives.Comparison.Recommended == "" {
		t.Fatal("no recommendation")
	}
}

func TestRunDeterministic(t *testing.T) {
	base := ts(0).Unix()
	records := []signals.Record{
		{EventType: "login", Host: "A", Privilege: "user", Timestamp: base},
		{EventType: "smb_session", Src: "A", Dst: "B", Timestamp: base + 60},
	}
	cfg := DefaultRunConfig()
	cfg.Now = ts(60)

	a, err := Run(signals.Ingest(records), rules.Default(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Run(signals.Ingest(records), rules.Default(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sa, sb := a.Store.All(), b.Store.All()
	if len(sa) != len(sb) {
		t.Fatalf("state counts differ: %d vs %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i].Key != sb[i].Key || sa[i].Confidence != sb[i].Confidence {
			t.Fatalf("state %d differs: %+v vs %+v", i, sa[i], sb[i])
		}
	}
	for i := range a.Narratives.Narratives {
		na, nb := a.Narratives.Narratives[i], b.Narratives.Narratives[i]
		if na.Name != nb.Name || na.Score != nb.Score {
			t.Fatalf("narrative %d differs: %s=%v vs %s=%v", i, na.Name, na.Score, nb.Name, nb.Score)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Now = ts(0)

	res, err := Run(signals.Batch{}, rules.Default(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Store.Len() != 0 {
		t.Fatalf("empty input produced %d states", res.Store.Len())
	}
	ns := res.Narratives.Narratives
	if len(ns) != 1 || ns[0].Name != narrative.VariantMinimal || ns[0].Score != 0 {
		t.Fatalf("expected the trivial minimal narrative, got %+v", ns)
	}
}

func TestRunSynthesizesMissingPrerequisite(t *testing.T) {
	base := ts(0).Unix()
	batch := signals.Ingest([]signals.Record{
		{EventType: "sudo", Host: "A", Timestamp: base},
	})
	cfg := DefaultRunConfig()
	cfg.Now = ts(0)

	res, err := Run(batch, rules.Default(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Hypotheticals) != 1 {
		t.Fatalf("hypotheticals = %+v, want exactly the backfilled baseline", res.Hypotheticals)
	}

	st, ok := res.Store.Get(state.Key{Type: "user_access", Scope: "A"})
	if !ok || st.Origin != state.OriginHypothetical {
		t.Fatal("user_access:A not synthesized")
	}
	if st.Confidence < 0.25 || st.Confidence > 0.30 {
		t.Fatalf("confidence = %v, want within [0.25, 0.30]", st.Confidence)
	}
	if st.Reason != "Required for observed admin_access:A" {
		t.Fatalf("reason = %q", st.Reason)
	}
}
