// Package fanout writes each audit event to several stores.
package fanout

import (
	"context"
	"errors"
	"log/slog"

	audit "campusid/pkg/platform/audit"
	"campusid/pkg/platform/circuit"
)

type sink struct {
	store   audit.Store
	breaker *circuit.Breaker
}

// Store appends to the primary store and every secondary sink. Reads are
// served by the primary only. Each sink sits behind a circuit breaker: while
// a sink's circuit is open its errors are logged on transition and otherwise
// dropped, so a dead broker cannot fail every append.
type Store struct {
	primary audit.Store
	sinks   []sink
	logger  *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithSink adds a secondary store guarded by a breaker named name.
func WithSink(name string, store audit.Store, opts ...circuit.Option) Option {
	return func(s *Store) {
		s.sinks = append(s.sinks, sink{store: store, breaker: circuit.New(name, opts...)})
	}
}

func New(primary audit.Store, opts ...Option) *Store {
	s := &Store{primary: primary, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append writes to every store and joins the errors that should surface. A
// failing sink does not prevent the others from receiving the event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	errs := []error{s.primary.Append(ctx, event)}
	for _, sk := range s.sinks {
		errs = append(errs, s.appendSink(ctx, sk, event))
	}
	return errors.Join(errs...)
}

func (s *Store) appendSink(ctx context.Context, sk sink, event audit.Event) error {
	if err := sk.store.Append(ctx, event); err != nil {
		useFallback, change := sk.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "audit sink circuit opened", "sink", sk.breaker.Name(), "error", err)
		}
		if useFallback {
			return nil
		}
		return err
	}
	if _, change := sk.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit sink circuit closed", "sink", sk.breaker.Name())
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]audit.Event, error) {
	return s.primary.ListByUser(ctx, userID)
}
