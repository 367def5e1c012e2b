package temporal

import (
	"testing"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

func refNow() time.Time {
	return time.Unix(1_700_000_000, 0).UTC()
}

func TestGapPenaltyLinearRange(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), refNow())

	cases := []struct {
		gap  time.Duration
		want float64
	}{
		{0, 1.0},
		{30 * time.Minute, 0.85},
		{time.Hour, 0.7},
	}
	for _, c := range cases {
		got, label := e.GapPenalty(c.gap, time.Hour)
		if diff := got - c.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("GapPenalty(%v) = %v, want %v", c.gap, got, c.want)
		}
		if label != "" {
			t.Fatalf("GapPenalty(%v) labeled %q inside linear range", c.gap, label)
		}
	}
}

func TestGapPenaltyMonotonic(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), refNow())
	maxGap := time.Hour

	gaps := []time.Duration{
		0, 10 * time.Minute, 30 * time.Minute, 59 * time.Minute,
		time.Hour, 61 * time.Minute, 2 * time.Hour, 6 * time.Hour, 48 * time.Hour,
	}
	prev := 2.0
	for _, g := range gaps {
		p, _ := e.GapPenalty(g, maxGap)
		if p >= prev {
			t.Fatalf("penalty not strictly decreasing at gap %v: %v >= %v", g, p, prev)
		}
		if p <= 0 {
			t.Fatalf("penalty reached zero at gap %v", g)
		}
		prev = p
	}

	// Strict drop across the linear→exponential boundary.
	atBoundary, _ := e.GapPenalty(time.Hour, maxGap)
	justPast, label := e.GapPenalty(time.Hour+time.Second, maxGap)
	if justPast >= atBoundary {
		t.Fatalf("no strict decrease across boundary: %v -> %v", atBoundary, justPast)
	}
	if label != ViolationTimeGapExceeded {
		t.Fatalf("expected %q past boundary, got %q", ViolationTimeGapExceeded, label)
	}
}

func TestCheckCausality(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), refNow())
	pre := refNow()

	penalty, label, violated := e.CheckCausality(pre.Add(-time.Minute), pre)
	if !violated {
		t.Fatal("effect before cause must violate causality")
	}
	if label != ViolationCausality {
		t.Fatalf("label = %q", label)
	}
	if penalty != 0.01 {
		t.Fatalf("violation penalty = %v, want 0.01", penalty)
	}

	if _, _, violated := e.CheckCausality(pre.Add(time.Minute), pre); violated {
		t.Fatal("effect after cause is not a violation")
	}
	if _, _, violated := e.CheckCausality(pre, pre); violated {
		t.Fatal("simultaneous effect is not a violation")
	}
	// Missing timestamp: skip the check, do not crash or penalize.
	if penalty, _, violated := e.CheckCausality(time.Time{}, pre); violated || penalty != 1.0 {
		t.Fatalf("missing timestamp handled as violation (penalty %v)", penalty)
	}
}

func TestDecayFloorAndMonotonicity(t *testing.T) {
	e := NewEvaluator(DefaultConfig(), refNow())

	if d := e.Decay(refNow()); d != 1.0 {
		t.Fatalf("fresh state decay = %v, want 1.0", d)
	}
	if d := e.Decay(refNow().Add(time.Minute)); d != 1.0 {
		t.Fatalf("future state decay = %v, want 1.0", d)
	}

	half := e.Decay(refNow().Add(-time.Hour))
	if diff := half - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("decay at one half-life = %v, want 0.5", half)
	}

	prev := 1.1
	flooredSeen := false
	for _, age := range []time.Duration{
		10 * time.Minute, time.Hour, 100 * time.Minute, 3 * time.Hour, 24 * time.Hour,
	} {
		d := e.Decay(refNow().Add(-age))
		if d < 0.3 {
			t.Fatalf("decay %v below floor at age %v", d, age)
		}
		if d > prev {
			t.Fatalf("decay increased with age at %v", age)
		}
		if d == 0.3 {
			flooredSeen = true
		}
		prev = d
	}
	if !flooredSeen {
		t.Fatal("expected decay to reach the 0.3 floor at large ages")
	}
}

func TestWindow(t *testing.T) {
	store := state.NewStore()
	center := refNow()

	events := []state.Event{
		{Type: "user_access", Scope: "A", Timestamp: center.Add(-3 * time.Hour)}, // outside
		{Type: "admin_access", Scope: "A", Timestamp: center.Add(-90 * time.Minute)},
		{Type: "network_access", Scope: "A_to_B", Timestamp: center.Add(-time.Minute)},
		{Type: "user_access", Scope: "B", Timestamp: center.Add(time.Minute)}, // after center
	}
	for _, ev := range events {
		if _, err := store.Observe(ev); err != nil {
			t.Fatalf("Observe: %v", err)
		}
	}

	got := Window(store, center, 2*time.Hour)
	if len(got) != 2 {
		t.Fatalf("window returned %d states, want 2", len(got))
	}
	for _, st := range got {
		if st.Timestamp.Before(center.Add(-2*time.Hour)) || st.Timestamp.After(center) {
			t.Fatalf("state %s at %v outside window", st.Key, st.Timestamp)
		}
	}
}
