package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campusid/internal/credential"
	"campusid/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres stores credentials in the credentials table. Email uniqueness is
// enforced by the credentials_email_key index.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Insert(ctx context.Context, rec credential.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, rec.ID, rec.Email, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*credential.Record, error) {
	var rec credential.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM credentials
		WHERE email = $1
	`, email).Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by email: %w", err)
	}
	return &rec, nil
}
