// Package store provides SQLite-backed persistence for the LLM response
// cache and for pipeline run records.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cached is one cached LLM completion, keyed by the exact prompt text.
type Cached struct {
	Prompt    string
	Response  string
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Run records one pipeline invocation.
type Run struct {
	ID         string
	Project    string
	Source     string
	Status     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// CacheStats summarizes the completion cache.
type CacheStats struct {
	Entries   int
	SizeBytes int64
	Oldest    sql.NullTime
	Newest    sql.NullTime
}

// Store wraps a SQLite database holding the completion cache and run log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath and ensures all
// required tables exist. Parent directories are created as needed; use
// ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS completions (
			prompt_hash TEXT PRIMARY KEY,
			prompt      TEXT NOT NULL,
			response    TEXT NOT NULL,
			provider    TEXT NOT NULL,
			model       TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			project     TEXT NOT NULL,
			source      TEXT NOT NULL,
			status      TEXT NOT NULL,
			started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
			finished_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// promptKey hashes the exact prompt text into the cache key.
func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// GetCompletion looks up a cached response by exact prompt text.
// Returns nil if the prompt has not been cached.
func (s *Store) GetCompletion(prompt string) (*Cached, error) {
	var c Cached
	err := s.db.QueryRow(
		`SELECT prompt, response, provider, model, created_at
		 FROM completions WHERE prompt_hash = ?`, promptKey(prompt),
	).Scan(&c.Prompt, &c.Response, &c.Provider, &c.Model, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return &c, nil
}

// PutCompletion caches a response for the given prompt. An existing entry
// for the same prompt is replaced.
func (s *Store) PutCompletion(prompt, response, provider, model string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO completions (prompt_hash, prompt, response, provider, model, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		promptKey(prompt), prompt, response, provider, model,
	)
	if err != nil {
		return fmt.Errorf("put completion: %w", err)
	}
	return nil
}

// Stats reports the completion cache size and age range.
func (s *Store) Stats() (CacheStats, error) {
	var st CacheStats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(length(prompt) + length(response)), 0),
		        MIN(created_at), MAX(created_at)
		 FROM completions`,
	).Scan(&st.Entries, &st.SizeBytes, &st.Oldest, &st.Newest)
	if err != nil {
		return CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return st, nil
}

// ClearCompletions removes every cached completion and returns how many
// entries were deleted.
func (s *Store) ClearCompletions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM completions`)
	if err != nil {
		return 0, fmt.Errorf("clear completions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear completions: %w", err)
	}
	return n, nil
}

// StartRun records the beginning of a pipeline run.
func (s *Store) StartRun(id, project, source string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, project, source, status, started_at)
		 VALUES (?, ?, ?, 'running', datetime('now'))`,
		id, project, source,
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun marks a run as completed or failed.
func (s *Store) FinishRun(id, status string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, project, source, status, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Project, &r.Source, &r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
