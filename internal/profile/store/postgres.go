package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusid/internal/profile"
	"campusid/pkg/platform/sentinel"
)

// Postgres stores documents as JSONB rows in profile_documents.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) ReadDocument(ctx context.Context, path, key string) (*profile.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT fields FROM profile_documents
		WHERE collection = $1 AND doc_key = $2
	`, path, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read document %s/%s: %w", path, key, err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &profile.Document{Path: path, Key: key, Fields: fields}, nil
}

func (s *Postgres) WriteDocument(ctx context.Context, path, key string, fields profile.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", path, key, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO profile_documents (collection, doc_key, fields, written_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, doc_key)
		DO UPDATE SET fields = EXCLUDED.fields, written_at = EXCLUDED.written_at
	`, path, key, raw)
	if err != nil {
		return fmt.Errorf("write document %s/%s: %w", path, key, err)
	}
	return nil
}

func (s *Postgres) QueryEqual(ctx context.Context, path, field, value string, limit int) ([]profile.Document, error) {
	query := `
		SELECT doc_key, fields FROM profile_documents
		WHERE collection = $1 AND fields->>$2 = $3
		ORDER BY doc_key`
	args := []any{path, field, value}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s where %s: %w", path, field, err)
	}
	return collect(rows, path)
}

func (s *Postgres) ListDocuments(ctx context.Context, path string) ([]profile.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc_key, fields FROM profile_documents
		WHERE collection = $1
		ORDER BY doc_key
	`, path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return collect(rows, path)
}

func collect(rows pgx.Rows, path string) ([]profile.Document, error) {
	defer rows.Close()
	var docs []profile.Document
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan document in %s: %w", path, err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, profile.Document{Path: path, Key: key, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents in %s: %w", path, err)
	}
	return docs, nil
}

func decodeFields(raw []byte) (profile.Fields, error) {
	var fields profile.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return fields, nil
}
