package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord is the persisted summary of one batch run.
type RunRecord struct {
	ID           string
	Kind         string
	Success      bool
	Cancelled    bool
	ErrorMessage string
	Total        int
	Processed    int
	Identified   int
	Organized    int
	Errored      int
	StartedAt    time.Time
	FinishedAt   time.Time
	Duration     time.Duration
}

const initialScanKey = "initial_scan_completed_at"

// RecordRun stores a batch summary. A record without an ID gets one.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, kind, success, cancelled, error_message, total, processed, identified,
            organized, errored, started_at, finished_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Kind,
		boolToInt(run.Success),
		boolToInt(run.Cancelled),
		nullableString(run.ErrorMessage),
		run.Total,
		run.Processed,
		run.Identified,
		run.Organized,
		run.Errored,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, kind, success, cancelled, error_message, total, processed, identified,
        organized, errored, started_at, finished_at, duration_ms
        FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run        RunRecord
			success    int
			cancelled  int
			errMessage sql.NullString
			startedRaw string
			finishRaw  string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.Kind, &success, &cancelled, &errMessage, &run.Total, &run.Processed,
			&run.Identified, &run.Organized, &run.Errored, &startedRaw, &finishRaw, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Success = success != 0
		run.Cancelled = cancelled != 0
		run.ErrorMessage = errMessage.String
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if started, err := parseTimeString(startedRaw); err == nil {
			run.StartedAt = started
		}
		if finished, err := parseTimeString(finishRaw); err == nil {
			run.FinishedAt = finished
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// InitialScanCompleted reports whether a full-library initial scan finished.
func (s *Store) InitialScanCompleted(ctx context.Context) (bool, error) {
	_, ok, err := s.stateValue(ctx, initialScanKey)
	return ok, err
}

// MarkInitialScanCompleted records that the initial scan finished.
func (s *Store) MarkInitialScanCompleted(ctx context.Context) error {
	return s.setStateValue(ctx, initialScanKey, time.Now().UTC().Format(time.RFC3339Nano))
}

// ResetInitialScan clears the completion flag so the next initial scan runs again.
func (s *Store) ResetInitialScan(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, initialScanKey); err != nil {
		return fmt.Errorf("reset initial scan: %w", err)
	}
	return nil
}

func (s *Store) stateValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read state %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setStateValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}
	return nil
}
