// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists completed workflow runs in a SQLite database so
// the CLI can list and re-open past runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const dbFile = "runs.db"

// ErrNotFound reports a run id with no stored record.
var ErrNotFound = errors.New("run not found")

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at dataDir/runs.db, creating the
// schema if it does not exist.
func Open(cfg types.StorageConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			state TEXT NOT NULL,
			score REAL,
			citation_count INTEGER,
			started_at TEXT NOT NULL,
			elapsed_ms INTEGER,
			document_path TEXT,
			result TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save records a terminal run result. The full result is stored as JSON
// alongside the indexed summary columns; saving the same run id again
// replaces the record.
func (s *Store) Save(ctx context.Context, result types.WorkflowResult, documentPath string) error {
	if !result.State.Terminal() {
		return fmt.Errorf("run %s is not terminal (%s)", result.RunID, result.State)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, query, state, score, citation_count, started_at, elapsed_ms, document_path, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			query=excluded.query, state=excluded.state, score=excluded.score,
			citation_count=excluded.citation_count, started_at=excluded.started_at,
			elapsed_ms=excluded.elapsed_ms, document_path=excluded.document_path,
			result=excluded.result`,
		result.RunID, result.Query, string(result.State),
		result.AggregateScore(), result.CitationCount,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.Elapsed.Milliseconds(), documentPath, string(payload),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", result.RunID, err)
	}
	return nil
}

// Get returns the stored result and document path for a run id.
func (s *Store) Get(ctx context.Context, runID string) (types.WorkflowResult, string, error) {
	var payload, documentPath string
	err := s.db.QueryRowContext(ctx,
		`SELECT result, document_path FROM runs WHERE run_id = ?`, runID,
	).Scan(&payload, &documentPath)
	if errors.Is(err, sql.ErrNoRows) {
		return types.WorkflowResult{}, "", fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return types.WorkflowResult{}, "", fmt.Errorf("loading run %s: %w", runID, err)
	}

	var result types.WorkflowResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return types.WorkflowResult{}, "", fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return result, documentPath, nil
}

// List returns run summaries, most recent first.
func (s *Store) List(ctx context.Context) ([]types.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, query, state, score, citation_count, started_at, elapsed_ms
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []types.RunSummary
	for rows.Next() {
		var (
			summary   types.RunSummary
			state     string
			startedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&summary.RunID, &summary.Query, &state,
			&summary.Score, &summary.Citations, &startedAt, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		summary.State = types.RunState(state)
		summary.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			summary.StartedAt = t
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}
