// Package lockout throttles repeated sign-in failures per email and client.
package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campusid/pkg/platform/audit"
	dErrors "campusid/pkg/domain-errors"
	"campusid/pkg/requestcontext"
)

// Store persists lockout records. Get returns nil without error when no
// record exists. RecordFailure must increment atomically, restarting the
// window counter when the last failure is before windowStart and the daily
// counter when it is before dayStart.
type Store interface {
	Get(ctx context.Context, identifier string) (*Record, error)
	RecordFailure(ctx context.Context, identifier string, now, windowStart, dayStart time.Time) (*Record, error)
	Update(ctx context.Context, record *Record) error
	Clear(ctx context.Context, identifier string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
	config         Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.config.AttemptsPerWindow <= 0 || svc.config.HardLockThreshold <= 0 {
		return nil, errors.New("lockout thresholds must be positive")
	}
	return svc, nil
}

// Check reports whether identifier may attempt a sign-in from ip.
func (s *Service) Check(ctx context.Context, identifier, ip string) (*Result, error) {
	record, err := s.store.Get(ctx, Key(identifier, ip))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get lockout record")
	}
	// Absent records take the same path as present ones.
	if record == nil {
		record = &Record{}
	}

	now := requestcontext.Now(ctx)
	if record.IsLockedAt(now) {
		return &Result{
			Allowed:      false,
			RetryAfter:   record.LockedUntil.Sub(now),
			FailureCount: record.FailureCount,
		}, nil
	}

	failures := record.FailuresInWindow(now.Add(-s.config.WindowDuration))
	if failures >= s.config.AttemptsPerWindow {
		resetAt := record.LastFailureAt.Add(s.config.WindowDuration)
		return &Result{
			Allowed:      false,
			RetryAfter:   max(resetAt.Sub(now), 0),
			FailureCount: failures,
		}, nil
	}
	return &Result{
		Allowed:      true,
		Remaining:    s.config.AttemptsPerWindow - failures,
		FailureCount: failures,
	}, nil
}

// RecordFailure counts a failed sign-in and applies the hard lock once the
// daily threshold is reached.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) (*Record, error) {
	now := requestcontext.Now(ctx)
	current, err := s.store.RecordFailure(ctx, Key(identifier, ip), now,
		now.Add(-s.config.WindowDuration), now.Add(-dayWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sign-in failure")
	}

	if current.DailyFailures >= s.config.HardLockThreshold && !current.IsLockedAt(now) {
		until := now.Add(s.config.HardLockDuration)
		current.LockedUntil = &until
		if err := s.store.Update(ctx, current); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockout")
		}
		s.logger.WarnContext(ctx, string(audit.EventLockoutTriggered),
			"email", identifier,
			"locked_until", until,
			"daily_failures", current.DailyFailures,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
		s.emit(ctx, identifier, until)
	}
	return current, nil
}

// Clear forgets the failures for identifier and ip after a successful sign-in.
func (s *Service) Clear(ctx context.Context, identifier, ip string) error {
	if err := s.store.Clear(ctx, Key(identifier, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear sign-in failures")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, identifier string, until time.Time) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action: string(audit.EventLockoutTriggered),
		Email:  identifier,
		Reason: "locked_until=" + until.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}
