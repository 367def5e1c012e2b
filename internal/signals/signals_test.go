package signals

import (
	"strings"
	"testing"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

func TestReadLogs(t *testing.T) {
	input := `{"event_type":"login","host":"A","privilege":"user","timestamp":1641024000}

{"event_type":"smb_session","src":"A","dst":"B","timestamp":1641024100}
`
	recs, err := ReadLogs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadLogs: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].EventType != "login" || recs[0].Host != "A" {
		t.Fatalf("record 0 = %+v", recs[0])
	}
}

func TestReadLogsMalformedLine(t *testing.T) {
	_, err := ReadLogs(strings.NewReader(`{"event_type":"login"` + "\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line-numbered parse error, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	cases := []struct {
		rec  Record
		want []state.Event
	}{
		{
			Record{EventType: "login", Host: "A", Privilege: "user", Timestamp: 100},
			[]state.Event{{Type: "user_access", Scope: "A", Timestamp: time.Unix(100, 0).UTC()}},
		},
		{
			// admin logins do not assert baseline user access
			Record{EventType: "login", Host: "A", Privilege: "admin", Timestamp: 100},
			nil,
		},
		{
			Record{EventType: "sudo", Host: "B", Timestamp: 200},
			[]state.Event{{Type: "admin_access", Scope: "B", Timestamp: time.Unix(200, 0).UTC()}},
		},
		{
			Record{EventType: "lsass_access", Host: "A", Timestamp: 300},
			[]state.Event{{Type: "credential_dumped", Scope: "A", Timestamp: time.Unix(300, 0).UTC()}},
		},
		{
			Record{EventType: "smb_session", Src: "A", Dst: "B", Timestamp: 400},
			[]state.Event{{Type: "network_access", Scope: "A_to_B", Timestamp: time.Unix(400, 0).UTC()}},
		},
		{
			Record{EventType: "rdp_session", Src: "B", Dst: "C", Timestamp: 500},
			[]state.Event{{Type: "network_access", Scope: "B_to_C", Timestamp: time.Unix(500, 0).UTC()}},
		},
		{
			Record{EventType: "heartbeat", Host: "A", Timestamp: 600},
			nil,
		},
	}

	for _, c := range cases {
		got := Extract(c.rec)
		if len(got) != len(c.want) {
			t.Fatalf("Extract(%+v) = %v, want %v", c.rec, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Extract(%+v)[%d] = %+v, want %+v", c.rec, i, got[i], c.want[i])
			}
		}
	}
}

func TestExtractNegative(t *testing.T) {
	got := ExtractNegative(Record{EventType: "logout", Host: "A", Timestamp: 100})
	if len(got) != 2 {
		t.Fatalf("logout should contradict both access levels, got %v", got)
	}

	got = ExtractNegative(Record{EventType: "firewall_block", Src: "A", Dst: "B", Timestamp: 100})
	if len(got) != 1 || got[0] != (state.Key{Type: "network_access", Scope: "A_to_B"}) {
		t.Fatalf("firewall_block negative = %v", got)
	}

	if got := ExtractNegative(Record{EventType: "login", Host: "A"}); got != nil {
		t.Fatalf("positive event produced negatives: %v", got)
	}
}

func TestIngestBuildsCorroborationIndex(t *testing.T) {
	batch := Ingest([]Record{
		{EventType: "login", Host: "A", Privilege: "user", Timestamp: 100},
		{EventType: "lsass_access", Host: "A", Timestamp: 200},
		{EventType: "login_failed", Host: "B", Timestamp: 300},
	})

	if len(batch.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(batch.Events))
	}
	if len(batch.Negative) != 1 {
		t.Fatalf("negative = %d, want 1", len(batch.Negative))
	}
	// All three lines enter the signal index, including the one that
	// produced no state.
	if len(batch.Signals) != 3 {
		t.Fatalf("signals = %d, want 3", len(batch.Signals))
	}
	if batch.Signals[1] != (Signal{EventType: "lsass_access", Scope: "A"}) {
		t.Fatalf("signal[1] = %+v", batch.Signals[1])
	}
}
