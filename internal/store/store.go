// Package store keeps an append-only SQLite history of pipeline runs.
//
// The history is an audit log for the `history` command. The pipeline never
// reads from it, so a stored run is never served in place of a fresh call.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/transcritic/internal"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		original_text TEXT NOT NULL,
		target_language TEXT NOT NULL,
		translated_text TEXT NOT NULL DEFAULT '',
		evaluation_raw TEXT NOT NULL DEFAULT '',
		evaluation_failed BOOLEAN DEFAULT FALSE,
		state TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		language_mismatch BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON pipeline_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_state ON pipeline_runs(state);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts run. A missing ID or timestamp is filled in.
func (s *Store) SaveRun(ctx context.Context, run internal.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, original_text, target_language, translated_text, evaluation_raw, evaluation_failed, state, error, language_mismatch, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, normalizeText(run.OriginalText), run.TargetLanguage, run.TranslatedText, run.EvaluationRaw, run.EvaluationFailed,
		run.State, run.Error, run.LanguageMismatch, run.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, original_text, target_language, translated_text, evaluation_raw, evaluation_failed, state, error, language_mismatch, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (internal.Run, error) {
	var r internal.Run
	err := row.Scan(&r.ID, &r.OriginalText, &r.TargetLanguage, &r.TranslatedText, &r.EvaluationRaw, &r.EvaluationFailed,
		&r.State, &r.Error, &r.LanguageMismatch, &r.Timestamp)
	return r, err
}

// GetRun returns ErrNotFound when no run has the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (*internal.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

type HistoryStats struct {
	TotalRuns          int
	CompletedRuns      int
	DegradedRuns       int
	FailedRuns         int
	LanguageMismatches int
}

// Stats summarises the history. A degraded run finished but its evaluation
// call failed; it is counted in CompletedRuns as well.
func (s *Store) Stats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? AND evaluation_failed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN language_mismatch THEN 1 ELSE 0 END), 0)
		FROM pipeline_runs`, internal.RunDone, internal.RunDone, internal.RunTranslationFailed).Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.DegradedRuns,
		&stats.FailedRuns,
		&stats.LanguageMismatches,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteRun permanently removes a run by ID.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRuns removes all runs and returns how many were deleted.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_runs`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization so
// visually identical inputs are stored identically.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
