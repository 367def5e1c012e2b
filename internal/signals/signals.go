package signals

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region read
// ReadLogs parses JSONL telemetry from r. Blank lines are skipped; a
// malformed line is an error carrying its line number.
func ReadLogs(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("log line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	return out, nil
}

// ReadLogFile reads JSONL telemetry from a file.
func ReadLogFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logs %s: %w", path, err)
	}
	defer f.Close()
	return ReadLogs(f)
}

// #endregion read

// #region extract
// Extract maps one log record to the state events it asserts.
func Extract(rec Record) []state.Event {
	ts := time.Unix(rec.Timestamp, 0).UTC()
	var out []state.Event

	switch rec.EventType {
	case "login":
		if rec.Privilege == "user" && rec.Host != "" {
			out = append(out, state.Event{Type: "user_access", Scope: rec.Host, Timestamp: ts})
		}
	case "sudo":
		if rec.Host != "" {
			out = append(out, state.Event{Type: "admin_access", Scope: rec.Host, Timestamp: ts})
		}
	case "lsass_access", "proc_dump":
		if rec.Host != "" {
			out = append(out, state.Event{Type: "credential_dumped", Scope: rec.Host, Timestamp: ts})
		}
	case "smb_session", "rdp_session":
		if rec.Src != "" && rec.Dst != "" {
			out = append(out, state.Event{Type: "network_access", Scope: rec.Src + "_to_" + rec.Dst, Timestamp: ts})
		}
	}
	return out
}

// ExtractNegative maps one log record to the state keys it contradicts.
func ExtractNegative(rec Record) []state.Key {
	var out []state.Key
	switch rec.EventType {
	case "login_failed":
		if rec.Host != "" {
			out = append(out, state.Key{Type: "user_access", Scope: rec.Host})
		}
	case "logout":
		if rec.Host != "" {
			out = append(out,
				state.Key{Type: "user_access", Scope: rec.Host},
				state.Key{Type: "admin_access", Scope: rec.Host},
			)
		}
	case "edr_block":
		if rec.Host != "" {
			out = append(out, state.Key{Type: "credential_dumped", Scope: rec.Host})
		}
	case "firewall_block":
		if rec.Src != "" && rec.Dst != "" {
			out = append(out, state.Key{Type: "network_access", Scope: rec.Src + "_to_" + rec.Dst})
		}
	}
	return out
}

// #endregion extract

// #region ingest
// Ingest runs extraction over a record set and builds the engine input
// batch. Every record lands in the corroboration index regardless of
// whether it produced a state.
func Ingest(records []Record) Batch {
	var b Batch
	for _, rec := range records {
		b.Events = append(b.Events, Extract(rec)...)
		b.Negative = append(b.Negative, ExtractNegative(rec)...)
		b.Signals = append(b.Signals, Signal{EventType: rec.EventType, Scope: signalScope(rec)})
	}
	return b
}

// signalScope picks the scope a corroborating signal attaches to: the host
// for host events, src_to_dst for network events.
func signalScope(rec Record) string {
	if rec.Host != "" {
		return rec.Host
	}
	if rec.Src != "" && rec.Dst != "" {
		return rec.Src + "_to_" + rec.Dst
	}
	return ""
}

// #endregion ingest
