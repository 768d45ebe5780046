// Package store provides SQLite-backed persistence for the AI response cache
// and the history of generation runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// RunInfo describes a generation run when it starts.
type RunInfo struct {
	Project   string
	Format    string
	OutputDir string
	Inputs    int
	StartedAt time.Time
}

// RunOutcome is recorded when a generation run ends.
type RunOutcome struct {
	Project    string
	Pages      int
	Warnings   int
	Diagrams   int
	Strategy   string
	Err        error
	FinishedAt time.Time
}

// Run is a persisted generation run.
type Run struct {
	ID         string
	Project    string
	Format     string
	OutputDir  string
	Inputs     int
	Status     string
	Pages      int
	Warnings   int
	Diagrams   int
	Strategy   string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store wraps a SQLite database for docsmith persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ai_cache (
			key        TEXT PRIMARY KEY,
			model      TEXT NOT NULL,
			response   TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generation_runs (
			id          TEXT PRIMARY KEY,
			project     TEXT NOT NULL,
			format      TEXT NOT NULL,
			output_dir  TEXT NOT NULL,
			inputs      INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL,
			pages       INTEGER NOT NULL DEFAULT 0,
			warnings    INTEGER NOT NULL DEFAULT 0,
			diagrams    INTEGER NOT NULL DEFAULT 0,
			strategy    TEXT NOT NULL DEFAULT '',
			error       TEXT NOT NULL DEFAULT '',
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON generation_runs (started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// CachedResponse returns the stored AI reply for key.
func (s *Store) CachedResponse(key string) (string, bool, error) {
	var response string
	err := s.db.QueryRow(`SELECT response FROM ai_cache WHERE key = ?`, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached response: %w", err)
	}
	return response, true, nil
}

// CacheResponse stores an AI reply. An existing entry for key is replaced.
func (s *Store) CacheResponse(key, model, response string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO ai_cache (key, model, response, created_at)
		 VALUES (?, ?, ?, ?)`,
		key, model, response, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("cache response: %w", err)
	}
	return nil
}

// PruneCache deletes cache entries created before cutoff and reports how
// many were removed.
func (s *Store) PruneCache(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM ai_cache WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

// CacheSize returns the number of cached AI replies.
func (s *Store) CacheSize() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ai_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache: %w", err)
	}
	return n, nil
}

// StartRun records a new running generation and returns its id.
func (s *Store) StartRun(info RunInfo) (string, error) {
	id := uuid.NewString()
	started := info.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	_, err := s.db.Exec(
		`INSERT INTO generation_runs (id, project, format, output_dir, inputs, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, info.Project, info.Format, info.OutputDir, info.Inputs, StatusRunning, formatTime(started),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as succeeded, or failed when out.Err is set.
func (s *Store) FinishRun(id string, out RunOutcome) error {
	status, msg := StatusSucceeded, ""
	if out.Err != nil {
		status, msg = StatusFailed, out.Err.Error()
	}
	finished := out.FinishedAt
	if finished.IsZero() {
		finished = s.now()
	}
	res, err := s.db.Exec(
		`UPDATE generation_runs
		 SET project = COALESCE(NULLIF(?, ''), project),
		     status = ?, pages = ?, warnings = ?, diagrams = ?, strategy = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		out.Project, status, out.Pages, out.Warnings, out.Diagrams, out.Strategy, msg, formatTime(finished), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", id)
	}
	return nil
}

const runColumns = `id, project, format, output_dir, inputs, status, pages, warnings, diagrams, strategy, error, started_at, finished_at`

// GetRun retrieves a run by id. Returns nil if the run is not found.
func (s *Store) GetRun(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM generation_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns every run.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM generation_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var started, finished string
	if err := row.Scan(&r.ID, &r.Project, &r.Format, &r.OutputDir, &r.Inputs, &r.Status,
		&r.Pages, &r.Warnings, &r.Diagrams, &r.Strategy, &r.Error, &started, &finished); err != nil {
		return nil, err
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &r, nil
}
