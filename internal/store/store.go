// Package store persists extracted call edges to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"jcallgraph/internal/callgraph"
)

// ErrUnknownRun is returned for a run id with no row.
var ErrUnknownRun = errors.New("store: unknown run")

// Store handles persistence of call edges to SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open creates or opens a jcallgraph database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}

	return &Store{db: db, dbPath: path, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// BeginRun records a new run over root and returns its id.
func (s *Store) BeginRun(ctx context.Context, root string) (RunID, error) {
	id := RunID(uuid.NewString())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, root, started_at)
		VALUES (?, ?, ?)
	`, string(id), root, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("store: begin run: %w", err)
	}
	return id, nil
}

// InsertFile stores the edges of one class file in a single transaction.
// Edges are keyed by their Order, which must be unique within the run.
func (s *Store) InsertFile(ctx context.Context, run RunID, classFile string, edges []callgraph.CallEdge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO call_edges (run_id, seq, class_file, caller, callee, opcode, code_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, string(run), e.Order, classFile, e.Caller, e.Callee, e.Opcode.String(), e.Offset); err != nil {
			return fmt.Errorf("store: insert %s -> %s: %w", e.Caller, e.Callee, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit %s: %w", classFile, err)
	}
	return nil
}

// FinishRun records the totals and finish time of a run.
func (s *Store) FinishRun(ctx context.Context, run RunID, totals RunTotals) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, files = ?, failed = ?, edges = ?
		WHERE id = ?
	`, s.now().UTC().Format(time.RFC3339Nano), totals.Files, totals.Failed, totals.Edges, string(run))
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, run)
	}
	return nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, run RunID) (*Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, root, started_at, finished_at, files, failed, edges
		FROM runs WHERE id = ?
	`, string(run)).Scan(&r.ID, &r.Root, &started, &finished, &r.Files, &r.Failed, &r.Edges)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, run)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	return &r, nil
}

// Runs returns all runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	var ids []RunID
	for rows.Next() {
		var id RunID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}

	runs := make([]Run, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, nil
}

// Edges returns the edges of a run in discovery order.
func (s *Store) Edges(ctx context.Context, run RunID) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, class_file, caller, callee, opcode, code_offset
		FROM call_edges WHERE run_id = ?
		ORDER BY seq
	`, string(run))
	if err != nil {
		return nil, fmt.Errorf("store: query edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Seq, &e.ClassFile, &e.Caller, &e.Callee, &e.Opcode, &e.Offset); err != nil {
			return nil, fmt.Errorf("store: scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CallersOf returns the distinct callers of callee within a run, sorted.
func (s *Store) CallersOf(ctx context.Context, run RunID, callee string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT caller FROM call_edges
		WHERE run_id = ? AND callee = ?
		ORDER BY caller
	`, string(run), callee)
	if err != nil {
		return nil, fmt.Errorf("store: query callers: %w", err)
	}
	defer rows.Close()

	var callers []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("store: scanning caller: %w", err)
		}
		callers = append(callers, c)
	}
	return callers, rows.Err()
}
