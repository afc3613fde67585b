// Package store holds the lockout record backends.
package store

import (
	"context"
	"sync"
	"time"

	"campusid/internal/credential/lockout"
)

// InMemory keeps lockout records in a map. Records are copied in and out.
type InMemory struct {
	mu      sync.Mutex
	records map[string]lockout.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]lockout.Record)}
}

func (s *InMemory) Get(_ context.Context, identifier string) (*lockout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *InMemory) RecordFailure(_ context.Context, identifier string, now, windowStart, dayStart time.Time) (*lockout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identifier]
	if !ok {
		rec = lockout.Record{Identifier: identifier}
	}
	if rec.LastFailureAt.Before(windowStart) {
		rec.FailureCount = 0
	}
	if rec.LastFailureAt.Before(dayStart) {
		rec.DailyFailures = 0
	}
	rec.FailureCount++
	rec.DailyFailures++
	rec.LastFailureAt = now
	s.records[identifier] = rec
	return &rec, nil
}

func (s *InMemory) Update(_ context.Context, record *lockout.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Identifier] = *record
	return nil
}

func (s *InMemory) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}
