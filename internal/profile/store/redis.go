package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/redis/go-redis/v9"

	"campusid/internal/profile"
	"campusid/pkg/platform/sentinel"
)

// Redis stores each document as a hash. Every collection keeps a set of its
// document keys and one index set per (field, value) so equality queries do
// not scan. Segments are query-escaped, so a ':' inside a path, field or
// value cannot address another key.
//
//	doc:{path}:{key}               hash of fields
//	coll:{path}                    set of keys
//	idx:{path}:{field}:{value}     set of keys
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// maxWriteAttempts bounds optimistic retries when another writer touches the
// same document between WATCH and EXEC.
const maxWriteAttempts = 10

func segment(s string) string {
	return url.QueryEscape(s)
}

func docKey(path, key string) string {
	return "doc:" + segment(path) + ":" + segment(key)
}

func collKey(path string) string {
	return "coll:" + segment(path)
}

func indexKey(path, field, value string) string {
	return "idx:" + segment(path) + ":" + segment(field) + ":" + segment(value)
}

func (s *Redis) ReadDocument(ctx context.Context, path, key string) (*profile.Document, error) {
	fields, err := s.client.HGetAll(ctx, docKey(path, key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read document %s/%s: %w", path, key, err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return &profile.Document{Path: path, Key: key, Fields: profile.Fields(fields)}, nil
}

// WriteDocument replaces the document and its index entries in one
// MULTI/EXEC. The document key is watched while the previous version is read
// so its stale index entries are removed even under concurrent writers.
func (s *Redis) WriteDocument(ctx context.Context, path, key string, fields profile.Fields) error {
	dk := docKey(path, key)
	write := func(tx *redis.Tx) error {
		previous, err := tx.HGetAll(ctx, dk).Result()
		if err != nil {
			return fmt.Errorf("read previous document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for field, value := range previous {
				pipe.SRem(ctx, indexKey(path, field, value), key)
			}
			pipe.Del(ctx, dk)
			if len(fields) > 0 {
				values := make(map[string]any, len(fields))
				for field, value := range fields {
					values[field] = value
					pipe.SAdd(ctx, indexKey(path, field, value), key)
				}
				pipe.HSet(ctx, dk, values)
			}
			pipe.SAdd(ctx, collKey(path), key)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err := s.client.Watch(ctx, write, dk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("write document %s/%s: %w", path, key, err)
		}
		return nil
	}
	return fmt.Errorf("write document %s/%s: %w", path, key, redis.TxFailedErr)
}

func (s *Redis) QueryEqual(ctx context.Context, path, field, value string, limit int) ([]profile.Document, error) {
	keys, err := s.client.SMembers(ctx, indexKey(path, field, value)).Result()
	if err != nil {
		return nil, fmt.Errorf("query %s where %s: %w", path, field, err)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return s.readAll(ctx, path, keys)
}

func (s *Redis) ListDocuments(ctx context.Context, path string) ([]profile.Document, error) {
	keys, err := s.client.SMembers(ctx, collKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	sort.Strings(keys)
	return s.readAll(ctx, path, keys)
}

func (s *Redis) readAll(ctx context.Context, path string, keys []string) ([]profile.Document, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, docKey(path, key))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read documents in %s: %w", path, err)
	}

	docs := make([]profile.Document, 0, len(keys))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		docs = append(docs, profile.Document{Path: path, Key: keys[i], Fields: profile.Fields(fields)})
	}
	return docs, nil
}
