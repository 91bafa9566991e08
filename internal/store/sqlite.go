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

	"github.com/stellarlinkco/codepilot/internal/trx"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt *sql.Stmt
	getRunStmt    *sql.Stmt
	listRunsStmt  *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
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

	if err := initSQLiteSchema(db); err != nil {
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

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS test_runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			working_dir TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			success INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			total INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			artifact_path TEXT,
			failures BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_runs_started_at ON test_runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil db")
	}

	var err error
	s.insertRunStmt, err = s.db.Prepare(`INSERT INTO test_runs
		(id, command, working_dir, started_at, finished_at, success,
		 passed, failed, skipped, total, duration_ms, artifact_path, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert run: %w", err)
	}

	s.getRunStmt, err = s.db.Prepare(selectRunColumns + ` WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare get run: %w", err)
	}

	s.listRunsStmt, err = s.db.Prepare(selectRunColumns + ` ORDER BY started_at DESC LIMIT ?`)
	if err != nil {
		return fmt.Errorf("store: prepare list runs: %w", err)
	}

	return nil
}

const selectRunColumns = `SELECT id, command, working_dir, started_at, finished_at,
	success, passed, failed, skipped, total, duration_ms, artifact_path, failures
	FROM test_runs`

// SaveRun persists one completed test run.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *RunRecord) error {
	if s == nil || s.insertRunStmt == nil {
		return errors.New("store: not initialized")
	}
	if rec == nil {
		return errors.New("store: nil run record")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("store: empty run id")
	}

	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return fmt.Errorf("store: encode failures: %w", err)
	}

	_, err = s.insertRunStmt.ExecContext(ctx,
		rec.ID,
		rec.Command,
		rec.WorkingDir,
		rec.StartedAt.UnixMilli(),
		rec.FinishedAt.UnixMilli(),
		boolToInt(rec.Success),
		rec.Summary.Passed,
		rec.Summary.Failed,
		rec.Summary.Skipped,
		rec.Summary.Total,
		rec.Summary.DurationMs,
		rec.ArtifactPath,
		failures,
	)
	if err != nil {
		return fmt.Errorf("store: save run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or an error when absent.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil || s.getRunStmt == nil {
		return nil, errors.New("store: not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	rec, err := scanRun(s.getRunStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: run %q not found", id)
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if s == nil || s.listRunsStmt == nil {
		return nil, errors.New("store: not initialized")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.listRunsStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// Close releases prepared statements and the connection pool.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertRunStmt, s.getRunStmt, s.listRunsStmt} {
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
		rec               RunRecord
		started, finished int64
		success           int
		artifact          sql.NullString
		failures          []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.Command,
		&rec.WorkingDir,
		&started,
		&finished,
		&success,
		&rec.Summary.Passed,
		&rec.Summary.Failed,
		&rec.Summary.Skipped,
		&rec.Summary.Total,
		&rec.Summary.DurationMs,
		&artifact,
		&failures,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan run: %w", err)
	}

	rec.StartedAt = time.UnixMilli(started).UTC()
	rec.FinishedAt = time.UnixMilli(finished).UTC()
	rec.Success = success != 0
	rec.ArtifactPath = artifact.String

	if len(failures) > 0 {
		var fs []trx.Failure
		if err := json.Unmarshal(failures, &fs); err != nil {
			return nil, fmt.Errorf("store: decode failures: %w", err)
		}
		rec.Failures = fs
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
