package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/engine"
	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	reference_time  TEXT NOT NULL,
	objective       TEXT NOT NULL DEFAULT '',
	recommended     TEXT NOT NULL DEFAULT '',
	state_count     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_states (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	state_type   TEXT NOT NULL,
	state_scope  TEXT NOT NULL,
	origin       TEXT NOT NULL,
	confidence   REAL NOT NULL,
	timestamp    TEXT NOT NULL,
	rule         TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL DEFAULT '',
	mechanism    TEXT NOT NULL DEFAULT '',
	factors_json TEXT,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_run_states_run ON run_states(run_id);

CREATE TABLE IF NOT EXISTS provenance_edges (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	child_type   TEXT NOT NULL,
	child_scope  TEXT NOT NULL,
	parent_type  TEXT NOT NULL,
	parent_scope TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_child ON provenance_edges(run_id, child_type, child_scope);

CREATE TABLE IF NOT EXISTS run_narratives (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	rank          INTEGER NOT NULL,
	name          TEXT NOT NULL,
	score         REAL NOT NULL,
	state_count   INTEGER NOT NULL,
	hypotheticals INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_narratives_run ON run_narratives(run_id);
`

// #endregion schema

// #region archive-struct
// Archive persists completed runs in SQLite so reports can be re-rendered
// and compared without re-running the engine.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if needed) an archive database at dbPath and runs
// migrations.
func Open(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	return NewArchive(db)
}

// NewArchive runs migrations on an already opened database.
func NewArchive(db *sql.DB) (*Archive, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// #endregion archive-struct

// #region save
// SaveRun persists a run's graph, provenance edges and ranked narratives in
// one transaction.
func (a *Archive) SaveRun(res *engine.RunResult, objective string) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, created_at, reference_time, objective, recommended, state_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.RunID, now, res.Now.Format(time.RFC3339Nano), objective,
		res.Narratives.Comparison.Recommended, res.Store.Len(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, st := range res.Store.All() {
		factorsJSON, err := json.Marshal(st.Provenance.Factors)
		if err != nil {
			return fmt.Errorf("marshal factors: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO run_states (run_id, state_type, state_scope, origin, confidence, timestamp, rule, reason, mechanism, factors_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, st.Key.Type, st.Key.Scope, string(st.Origin), st.Confidence,
			st.Timestamp.UTC().Format(time.RFC3339Nano),
			st.Provenance.Rule, st.Reason, st.Mechanism, string(factorsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert state %s: %w", st.Key, err)
		}
		for _, parent := range st.Provenance.Parents {
			_, err = tx.Exec(
				`INSERT INTO provenance_edges (run_id, child_type, child_scope, parent_type, parent_scope)
				 VALUES (?, ?, ?, ?, ?)`,
				res.RunID, st.Key.Type, st.Key.Scope, parent.Type, parent.Scope,
			)
			if err != nil {
				return fmt.Errorf("insert edge %s<-%s: %w", st.Key, parent, err)
			}
		}
	}

	for rank, n := range res.Narratives.Narratives {
		_, err = tx.Exec(
			`INSERT INTO run_narratives (run_id, rank, name, score, state_count, hypotheticals)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, rank+1, n.Name, n.Score, len(n.States), n.Stats.Hypotheticals,
		)
		if err != nil {
			return fmt.Errorf("insert narrative %s: %w", n.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion save

// #region list
// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	// rowid reflects insertion order; created_at strings trim trailing
	// zeros and do not sort reliably.
	rows, err := a.db.Query(
		`SELECT run_id, created_at, reference_time, objective, recommended, state_count
		 FROM runs ORDER BY rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// #endregion list

// #region get
// GetRun loads one archived run in full.
func (a *Archive) GetRun(runID string) (RunRecord, error) {
	row := a.db.QueryRow(
		`SELECT run_id, created_at, reference_time, objective, recommended, state_count
		 FROM runs WHERE run_id = ?`,
		runID,
	)
	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %s: not archived", runID)
	}
	if err != nil {
		return RunRecord{}, err
	}
	rec := RunRecord{Summary: summary}

	rows, err := a.db.Query(
		`SELECT state_type, state_scope, origin, confidence, timestamp, rule, reason, mechanism, factors_json
		 FROM run_states WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return RunRecord{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var st StoredState
		var ts, factorsJSON string
		if err := rows.Scan(&st.Key.Type, &st.Key.Scope, (*string)(&st.Origin), &st.Confidence, &ts, &st.Rule, &st.Reason, &st.Mechanism, &factorsJSON); err != nil {
			return RunRecord{}, err
		}
		st.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if factorsJSON != "" {
			if err := json.Unmarshal([]byte(factorsJSON), &st.Factors); err != nil {
				return RunRecord{}, fmt.Errorf("unmarshal factors for %s: %w", st.Key, err)
			}
		}
		rec.States = append(rec.States, st)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, err
	}

	nrows, err := a.db.Query(
		`SELECT rank, name, score, state_count, hypotheticals
		 FROM run_narratives WHERE run_id = ? ORDER BY rank`,
		runID,
	)
	if err != nil {
		return RunRecord{}, err
	}
	defer nrows.Close()
	for nrows.Next() {
		var n StoredNarrative
		if err := nrows.Scan(&n.Rank, &n.Name, &n.Score, &n.StateCount, &n.Hypotheticals); err != nil {
			return RunRecord{}, err
		}
		rec.Narratives = append(rec.Narratives, n)
	}
	return rec, nrows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (RunSummary, error) {
	var s RunSummary
	var createdAt, refTime string
	if err := row.Scan(&s.RunID, &createdAt, &refTime, &s.Objective, &s.Recommended, &s.StateCount); err != nil {
		return RunSummary{}, err
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	s.ReferenceTime, _ = time.Parse(time.RFC3339Nano, refTime)
	return s, nil
}

// #endregion get

// #region chain
// Chain walks the archived provenance edges breadth-first from a state key,
// up to maxDepth hops, returning nodes in visit order.
func (a *Archive) Chain(runID string, key state.Key, maxDepth int) ([]ChainStep, error) {
	if maxDepth <= 0 {
		maxDepth = 5
	}

	result := []ChainStep{{Key: key, Depth: 0}}
	visited := map[state.Key]bool{key: true}
	queue := []ChainStep{{Key: key, Depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.Depth >= maxDepth {
			continue
		}

		rows, err := a.db.Query(
			`SELECT parent_type, parent_scope FROM provenance_edges
			 WHERE run_id = ? AND child_type = ? AND child_scope = ?
			 ORDER BY id`,
			runID, current.Key.Type, current.Key.Scope,
		)
		if err != nil {
			return result, fmt.Errorf("chain parents of %s: %w", current.Key, err)
		}
		var parents []state.Key
		for rows.Next() {
			var pk state.Key
			if err := rows.Scan(&pk.Type, &pk.Scope); err != nil {
				rows.Close()
				return result, err
			}
			parents = append(parents, pk)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return result, err
		}

		for _, pk := range parents {
			if visited[pk] {
				continue
			}
			visited[pk] = true
			step := ChainStep{Key: pk, Depth: current.Depth + 1}
			result = append(result, step)
			queue = append(queue, step)
		}
	}
	return result, nil
}

// #endregion chain
