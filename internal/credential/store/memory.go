package store

import (
	"context"
	"sync"

	"campusid/internal/credential"
	"campusid/pkg/platform/sentinel"
)

// InMemory keeps credentials in a map keyed by normalized email.
type InMemory struct {
	mu      sync.RWMutex
	byEmail map[string]credential.Record
}

func NewInMemory() *InMemory {
	return &InMemory{byEmail: make(map[string]credential.Record)}
}

// Insert adds rec unless the email is taken. Check and insert happen under
// one lock.
func (s *InMemory) Insert(_ context.Context, rec credential.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[rec.Email]; exists {
		return sentinel.ErrConflict
	}
	s.byEmail[rec.Email] = rec
	return nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*credential.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// Count reports how many credentials exist.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
