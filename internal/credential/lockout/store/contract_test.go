package store_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"campusid/internal/credential/lockout"
)

type lockoutStore interface {
	Get(ctx context.Context, identifier string) (*lockout.Record, error)
	RecordFailure(ctx context.Context, identifier string, now, windowStart, dayStart time.Time) (*lockout.Record, error)
	Update(ctx context.Context, record *lockout.Record) error
	Clear(ctx context.Context, identifier string) error
}

// ContractSuite runs the same assertions against each backend. Embedders set
// newStore and reset.
type ContractSuite struct {
	suite.Suite
	newStore func() lockoutStore
	reset    func()
	store    lockoutStore
	ctx      context.Context
}

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func (s *ContractSuite) SetupTest() {
	if s.reset != nil {
		s.reset()
	}
	s.store = s.newStore()
	s.ctx = context.Background()
}

func (s *ContractSuite) fail(identifier string, at time.Time) *lockout.Record {
	rec, err := s.store.RecordFailure(s.ctx, identifier, at, at.Add(-15*time.Minute), at.Add(-24*time.Hour))
	s.Require().NoError(err)
	return rec
}

func (s *ContractSuite) TestGet() {
	s.Run("missing identifier returns nil without error", func() {
		rec, err := s.store.Get(s.ctx, "unknown")
		s.NoError(err)
		s.Nil(rec)
	})

	s.Run("recorded failure reads back", func() {
		s.fail("ada", base)

		rec, err := s.store.Get(s.ctx, "ada")
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal("ada", rec.Identifier)
		s.Equal(1, rec.FailureCount)
		s.WithinDuration(base, rec.LastFailureAt, time.Millisecond)
		s.Nil(rec.LockedUntil)
	})
}

func (s *ContractSuite) TestRecordFailure() {
	s.Run("first failure starts both counters at one", func() {
		rec := s.fail("first", base)
		s.Equal(1, rec.FailureCount)
		s.Equal(1, rec.DailyFailures)
	})

	s.Run("failures inside the window accumulate", func() {
		s.fail("repeat", base)
		rec := s.fail("repeat", base.Add(time.Minute))
		s.Equal(2, rec.FailureCount)
		s.Equal(2, rec.DailyFailures)
		s.WithinDuration(base.Add(time.Minute), rec.LastFailureAt, time.Millisecond)
	})

	s.Run("window counter restarts after the window but daily does not", func() {
		s.fail("slow", base)
		s.fail("slow", base.Add(time.Minute))
		rec := s.fail("slow", base.Add(20*time.Minute))
		s.Equal(1, rec.FailureCount)
		s.Equal(3, rec.DailyFailures)
	})

	s.Run("daily counter restarts after a day", func() {
		s.fail("yesterday", base)
		rec := s.fail("yesterday", base.Add(25*time.Hour))
		s.Equal(1, rec.FailureCount)
		s.Equal(1, rec.DailyFailures)
	})
}

func (s *ContractSuite) TestUpdateAndClear() {
	rec := s.fail("locked", base)
	until := base.Add(15 * time.Minute)
	rec.LockedUntil = &until
	s.Require().NoError(s.store.Update(s.ctx, rec))

	got, err := s.store.Get(s.ctx, "locked")
	s.Require().NoError(err)
	s.Require().NotNil(got.LockedUntil)
	s.WithinDuration(until, *got.LockedUntil, time.Millisecond)
	s.True(got.IsLockedAt(base.Add(time.Minute)))

	// A later failure keeps the lock.
	again := s.fail("locked", base.Add(2*time.Minute))
	s.Require().NotNil(again.LockedUntil)

	s.Require().NoError(s.store.Clear(s.ctx, "locked"))
	got, err = s.store.Get(s.ctx, "locked")
	s.NoError(err)
	s.Nil(got)
}
