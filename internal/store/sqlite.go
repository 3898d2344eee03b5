package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/qa-gate/internal/config"
)

const (
	DefaultSQLitePath = "data/qa-gate.db"

	defaultListLimit = 50
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt *sql.Stmt
	getRunStmt    *sql.Stmt
}

// Open builds a store from config. An empty storage type means SQLite at
// the default path; "memory" keeps history for the process lifetime only.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("store: nil config")
	}

	storageType := strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	switch storageType {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("store: unsupported type %q", storageType)
	}
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS gate_runs (
			id TEXT PRIMARY KEY,
			suite TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			gate TEXT NOT NULL,
			overall_pass_rate REAL NOT NULL,
			global_threshold REAL NOT NULL,
			categories BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gate_runs_suite ON gate_runs(suite, started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error
	s.insertRunStmt, err = s.db.Prepare(`INSERT INTO gate_runs
		(id, suite, started_at, finished_at, gate, overall_pass_rate, global_threshold, categories)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert run: %w", err)
	}
	s.getRunStmt, err = s.db.Prepare(`SELECT id, suite, started_at, finished_at, gate,
		overall_pass_rate, global_threshold, categories FROM gate_runs WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare get run: %w", err)
	}
	return nil
}

// SaveRun persists one gate run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil store")
	}
	if run == nil {
		return errors.New("store: nil run")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("store: run with empty id")
	}

	categories, err := json.Marshal(run.Categories)
	if err != nil {
		return fmt.Errorf("store: encode categories: %w", err)
	}

	_, err = s.insertRunStmt.ExecContext(ctx,
		run.ID,
		run.Suite,
		run.StartedAt.UTC().Unix(),
		run.FinishedAt.UTC().Unix(),
		run.Gate,
		run.OverallPassRate,
		run.GlobalThreshold,
		categories,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// GetRun returns one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}
	row := s.getRunStmt.QueryRowContext(ctx, strings.TrimSpace(id))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: run %q not found", id)
	}
	return run, err
}

// ListRuns returns runs matching the filter, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil store")
	}

	var (
		where []string
		args  []any
	)
	if v := strings.TrimSpace(filter.Suite); v != "" {
		where = append(where, "suite = ?")
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, filter.Since.UTC().Unix())
	}
	if !filter.Until.IsZero() {
		where = append(where, "started_at <= ?")
		args = append(args, filter.Until.UTC().Unix())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, suite, started_at, finished_at, gate,
		overall_pass_rate, global_threshold, categories FROM gate_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertRunStmt, s.getRunStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run        RunRecord
		started    int64
		finished   int64
		categories []byte
	)
	if err := row.Scan(&run.ID, &run.Suite, &started, &finished, &run.Gate,
		&run.OverallPassRate, &run.GlobalThreshold, &categories); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	run.FinishedAt = time.Unix(finished, 0).UTC()
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &run.Categories); err != nil {
			return nil, fmt.Errorf("store: decode categories: %w", err)
		}
	}
	return &run, nil
}
