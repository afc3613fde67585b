package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusid/internal/credential/lockout"
)

// Postgres persists lockout records in the auth_lockouts table. It is pure
// I/O; thresholds and window lengths come from the caller.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, identifier string) (*lockout.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT identifier, failure_count, daily_failures, locked_until, last_failure_at
		FROM auth_lockouts
		WHERE identifier = $1
	`, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lockout record: %w", err)
	}
	return rec, nil
}

// RecordFailure increments both counters in a single upsert so concurrent
// failures cannot slip past the hard lock threshold.
func (s *Postgres) RecordFailure(ctx context.Context, identifier string, now, windowStart, dayStart time.Time) (*lockout.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		INSERT INTO auth_lockouts (identifier, failure_count, daily_failures, locked_until, last_failure_at)
		VALUES ($1, 1, 1, NULL, $2)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = CASE WHEN auth_lockouts.last_failure_at < $3 THEN 1 ELSE auth_lockouts.failure_count + 1 END,
			daily_failures = CASE WHEN auth_lockouts.last_failure_at < $4 THEN 1 ELSE auth_lockouts.daily_failures + 1 END,
			last_failure_at = $2
		RETURNING identifier, failure_count, daily_failures, locked_until, last_failure_at
	`, identifier, now, windowStart, dayStart))
	if err != nil {
		return nil, fmt.Errorf("record lockout failure: %w", err)
	}
	return rec, nil
}

func (s *Postgres) Update(ctx context.Context, record *lockout.Record) error {
	if record == nil {
		return fmt.Errorf("lockout record is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_lockouts (identifier, failure_count, daily_failures, locked_until, last_failure_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = EXCLUDED.failure_count,
			daily_failures = EXCLUDED.daily_failures,
			locked_until = EXCLUDED.locked_until,
			last_failure_at = EXCLUDED.last_failure_at
	`, record.Identifier, record.FailureCount, record.DailyFailures, record.LockedUntil, record.LastFailureAt)
	if err != nil {
		return fmt.Errorf("update lockout record: %w", err)
	}
	return nil
}

func (s *Postgres) Clear(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_lockouts WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("clear lockout record: %w", err)
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

func scanRecord(r row) (*lockout.Record, error) {
	var rec lockout.Record
	var lockedUntil sql.NullTime
	if err := r.Scan(&rec.Identifier, &rec.FailureCount, &rec.DailyFailures, &lockedUntil, &rec.LastFailureAt); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		rec.LockedUntil = &lockedUntil.Time
	}
	return &rec, nil
}
