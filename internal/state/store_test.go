package state

import (
	"testing"
	"time"
)

func ts(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func TestObserveFirstWins(t *testing.T) {
	s := NewStore()

	inserted, err := s.Observe(Event{Type: "user_access", Scope: "A", Timestamp: ts(100)})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !inserted {
		t.Fatal("expected first observation to insert")
	}

	inserted, err = s.Observe(Event{Type: "user_access", Scope: "A", Timestamp: ts(200)})
	if err != nil {
		t.Fatalf("Observe duplicate: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate observation to be ignored")
	}

	st, ok := s.Get(Key{Type: "user_access", Scope: "A"})
	if !ok {
		t.Fatal("expected state present")
	}
	if st.Confidence != 1.0 {
		t.Fatalf("observed confidence = %v, want 1.0", st.Confidence)
	}
	if !st.Timestamp.Equal(ts(100)) {
		t.Fatalf("timestamp = %v, want first observation", st.Timestamp)
	}
}

func TestCommitClampsConfidence(t *testing.T) {
	s := NewStore()

	cases := []struct {
		in   float64
		want float64
	}{
		{1.7, 1.0},
		{-0.2, 0.0},
		{0.42, 0.42},
	}
	for i, c := range cases {
		key := Key{Type: "admin_access", Scope: string(rune('A' + i))}
		if _, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: c.in, Timestamp: ts(1)}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		st, _ := s.Get(key)
		if st.Confidence != c.want {
			t.Fatalf("confidence %v clamped to %v, want %v", c.in, st.Confidence, c.want)
		}
	}
}

func TestCommitCapsHypothetical(t *testing.T) {
	s := NewStore()

	key := Key{Type: "user_access", Scope: "A"}
	_, err := s.Commit(State{
		Key:        key,
		Origin:     OriginHypothetical,
		Confidence: 0.9,
		Timestamp:  ts(1),
		Reason:     "Required for observed admin_access:A",
		Mechanism:  "unknown",
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	st, _ := s.Get(key)
	if st.Confidence > HypotheticalCeiling {
		t.Fatalf("hypothetical confidence = %v, want <= %v", st.Confidence, HypotheticalCeiling)
	}
}

func TestCommitNeverOverwritesObserved(t *testing.T) {
	s := NewStore()

	if _, err := s.Observe(Event{Type: "user_access", Scope: "B", Timestamp: ts(50)}); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	key := Key{Type: "user_access", Scope: "B"}
	changed, err := s.Commit(State{
		Key:        key,
		Origin:     OriginInferred,
		Confidence: 0.01,
		Timestamp:  ts(300),
		Provenance: Provenance{Rule: "Lateral Movement A_to_B", Parents: []Key{{Type: "credential_dumped", Scope: "A"}}},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if changed {
		t.Fatal("commit against observed key must not report change")
	}

	st, _ := s.Get(key)
	if st.Origin != OriginObserved || st.Confidence != 1.0 {
		t.Fatalf("observed state mutated: origin=%s conf=%v", st.Origin, st.Confidence)
	}
	if len(st.Alternates) != 1 {
		t.Fatalf("alternates = %d, want 1", len(st.Alternates))
	}
	if st.Alternates[0].Rule != "Lateral Movement A_to_B" {
		t.Fatalf("alternate rule = %q", st.Alternates[0].Rule)
	}
	if st.Alternates[0].Confidence != 0.01 {
		t.Fatalf("alternate confidence = %v, want the derivation's own 0.01", st.Alternates[0].Confidence)
	}
}

func TestCommitBestDerivationWins(t *testing.T) {
	s := NewStore()
	key := Key{Type: "admin_access", Scope: "A"}

	if _, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0.4, Timestamp: ts(1), Provenance: Provenance{Rule: "weak"}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	changed, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0.6, Timestamp: ts(2), Provenance: Provenance{Rule: "strong"}})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !changed {
		t.Fatal("improved derivation should report change")
	}

	st, _ := s.Get(key)
	if st.Provenance.Rule != "strong" || st.Confidence != 0.6 {
		t.Fatalf("winner = %q conf %v", st.Provenance.Rule, st.Confidence)
	}
	if len(st.Alternates) != 1 || st.Alternates[0].Rule != "weak" {
		t.Fatalf("expected losing derivation kept as alternate, got %+v", st.Alternates)
	}

	// Equal or worse re-derivation is a no-op beyond alternate tracking.
	changed, err = s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0.6, Timestamp: ts(3), Provenance: Provenance{Rule: "again"}})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if changed {
		t.Fatal("non-improving derivation must not report change")
	}
}

func TestCommitDeduplicatesAlternates(t *testing.T) {
	s := NewStore()
	key := Key{Type: "admin_access", Scope: "A"}

	if _, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0.6, Timestamp: ts(1), Provenance: Provenance{Rule: "r", Confidence: 0.6}}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// The fixpoint loop re-offers the same derivation every pass.
	for i := 0; i < 3; i++ {
		if _, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0.6, Timestamp: ts(1), Provenance: Provenance{Rule: "r", Confidence: 0.6}}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	st, _ := s.Get(key)
	if len(st.Alternates) != 0 {
		t.Fatalf("identical re-derivations recorded as alternates: %+v", st.Alternates)
	}
}

func TestFreezeRejectsMutation(t *testing.T) {
	s := NewStore()
	if _, err := s.Observe(Event{Type: "user_access", Scope: "A", Timestamp: ts(1)}); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	s.Freeze()

	if _, err := s.Observe(Event{Type: "user_access", Scope: "B", Timestamp: ts(2)}); err == nil {
		t.Fatal("expected observe on frozen store to fail")
	}
	if _, err := s.Commit(State{Key: Key{Type: "admin_access", Scope: "A"}, Origin: OriginInferred, Confidence: 0.5}); err == nil {
		t.Fatal("expected commit on frozen store to fail")
	}
}

func TestZeroConfidenceTreatedAbsent(t *testing.T) {
	s := NewStore()
	key := Key{Type: "credential_dumped", Scope: "A"}
	if _, err := s.Commit(State{Key: key, Origin: OriginInferred, Confidence: 0, Timestamp: ts(1)}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if s.Has(key) {
		t.Fatal("zero-confidence state must read as absent")
	}
	if _, ok := s.Get(key); !ok {
		t.Fatal("state should still be retrievable for explanation")
	}
}
