package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Run is one recorded invocation.
type Run struct {
	RunID          string    `json:"run_id" yaml:"run_id"`
	LibraryID      string    `json:"library_id,omitempty" yaml:"library_id,omitempty"`
	Input          string    `json:"input" yaml:"input"`
	Topic          string    `json:"topic,omitempty" yaml:"topic,omitempty"`
	Mode           string    `json:"mode" yaml:"mode"`
	Page           int       `json:"page" yaml:"page"`
	Outcome        string    `json:"outcome" yaml:"outcome"`
	Sections       []string  `json:"sections,omitempty" yaml:"sections,omitempty"`
	RawTokens      int       `json:"raw_tokens" yaml:"raw_tokens"`
	FilteredTokens int       `json:"filtered_tokens" yaml:"filtered_tokens"`
	// SavingsPercent is nil when the raw estimate was zero.
	SavingsPercent *float64      `json:"savings_percent,omitempty" yaml:"savings_percent,omitempty"`
	RawBytes       int           `json:"raw_bytes" yaml:"raw_bytes"`
	FilteredBytes  int           `json:"filtered_bytes" yaml:"filtered_bytes"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
}

// OutcomeCount is one row of the outcome summary.
type OutcomeCount struct {
	Outcome string `json:"outcome" yaml:"outcome"`
	Count   int    `json:"count" yaml:"count"`
}

// ensureLibrary returns the library_ref for a canonical id, inserting it if new.
func (db *DB) ensureLibrary(tx *sql.Tx, libraryID string) (int64, error) {
	var ref int64
	err := tx.QueryRow("SELECT library_ref FROM libraries WHERE library_id = ?", libraryID).Scan(&ref)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing library: %w", err)
	}

	result, err := tx.Exec("INSERT INTO libraries (library_id) VALUES (?)", libraryID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert library: %w", err)
	}
	ref, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get library ref: %w", err)
	}
	return ref, nil
}

// InsertRun records a run. Runs that never resolved a library have no
// library_ref.
func (db *DB) InsertRun(run Run) error {
	if run.RunID == "" {
		return fmt.Errorf("failed to insert run: empty run id")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ref sql.NullInt64
	if run.LibraryID != "" {
		id, err := db.ensureLibrary(tx, run.LibraryID)
		if err != nil {
			return err
		}
		ref = sql.NullInt64{Int64: id, Valid: true}
	}

	var savings sql.NullFloat64
	if run.SavingsPercent != nil {
		savings = sql.NullFloat64{Float64: *run.SavingsPercent, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, library_ref, input, topic, mode, page, outcome, sections,
			raw_tokens, filtered_tokens, savings_percent, raw_bytes, filtered_bytes, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, ref, run.Input, run.Topic, run.Mode, run.Page, run.Outcome, strings.Join(run.Sections, ","),
		run.RawTokens, run.FilteredTokens, savings, run.RawBytes, run.FilteredBytes, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT r.run_id, COALESCE(l.library_id, ''), r.input, COALESCE(r.topic, ''), r.mode, r.page,
			r.outcome, COALESCE(r.sections, ''), r.raw_tokens, r.filtered_tokens, r.savings_percent,
			r.raw_bytes, r.filtered_bytes, r.duration_ms, r.created_at
		FROM runs r
		LEFT JOIN libraries l ON l.library_ref = r.library_ref
		ORDER BY r.created_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			sections string
			savings  sql.NullFloat64
			millis   int64
		)
		if err := rows.Scan(&run.RunID, &run.LibraryID, &run.Input, &run.Topic, &run.Mode, &run.Page,
			&run.Outcome, &sections, &run.RawTokens, &run.FilteredTokens, &savings,
			&run.RawBytes, &run.FilteredBytes, &millis, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if sections != "" {
			run.Sections = strings.Split(sections, ",")
		}
		if savings.Valid {
			v := savings.Float64
			run.SavingsPercent = &v
		}
		run.Duration = time.Duration(millis) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// OutcomeCounts summarises recorded runs by outcome, most frequent first.
func (db *DB) OutcomeCounts() ([]OutcomeCount, error) {
	rows, err := db.Query("SELECT outcome, COUNT(*) FROM runs GROUP BY outcome ORDER BY COUNT(*) DESC, outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var counts []OutcomeCount
	for rows.Next() {
		var c OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
