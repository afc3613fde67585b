package store

import (
	"context"
	"sync"

	"campusid/internal/profile"
	"campusid/pkg/platform/sentinel"
)

// InMemory is a map-backed document store.
type InMemory struct {
	mu          sync.RWMutex
	collections map[string]map[string]profile.Fields
}

func NewInMemory() *InMemory {
	return &InMemory{collections: make(map[string]map[string]profile.Fields)}
}

func (s *InMemory) ReadDocument(_ context.Context, path, key string) (*profile.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.collections[path][key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &profile.Document{Path: path, Key: key, Fields: fields.Clone()}, nil
}

// WriteDocument creates or replaces the document at path/key.
func (s *InMemory) WriteDocument(_ context.Context, path, key string, fields profile.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[path]
	if !ok {
		coll = make(map[string]profile.Fields)
		s.collections[path] = coll
	}
	coll[key] = fields.Clone()
	return nil
}

// QueryEqual returns up to limit documents in path whose field equals value,
// ordered by key. A limit <= 0 means no limit.
func (s *InMemory) QueryEqual(_ context.Context, path, field, value string, limit int) ([]profile.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []profile.Document
	for key, fields := range s.collections[path] {
		if v, ok := fields[field]; ok && v == value {
			docs = append(docs, profile.Document{Path: path, Key: key, Fields: fields.Clone()})
		}
	}
	profile.SortByKey(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// ListDocuments returns every document in path, ordered by key.
func (s *InMemory) ListDocuments(_ context.Context, path string) ([]profile.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]profile.Document, 0, len(s.collections[path]))
	for key, fields := range s.collections[path] {
		docs = append(docs, profile.Document{Path: path, Key: key, Fields: fields.Clone()})
	}
	profile.SortByKey(docs)
	return docs, nil
}

// DeleteDocument removes a document. Used by tests to simulate lost writes.
func (s *InMemory) DeleteDocument(_ context.Context, path, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[path], key)
	return nil
}

// Count reports how many documents path holds.
func (s *InMemory) Count(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[path])
}
