// Package reconcile repairs student projections left behind by registrations
// that failed part-way through their profile writes.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"campusid/internal/profile"
	"campusid/internal/registration/metrics"
	"campusid/internal/registration/models"
	"campusid/pkg/platform/audit"
	"campusid/pkg/platform/sentinel"
)

// DocumentStore is the subset of a profile store the sweep needs. Only
// stores that can enumerate a collection support reconciliation.
type DocumentStore interface {
	ReadDocument(ctx context.Context, path, key string) (*profile.Document, error)
	WriteDocument(ctx context.Context, path, key string, fields profile.Fields) error
	ListDocuments(ctx context.Context, path string) ([]profile.Document, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Report summarises one sweep.
type Report struct {
	Courses         int `json:"courses"`
	Scanned         int `json:"scanned"`
	Skipped         int `json:"skipped"`
	RepairedRoots   int `json:"repaired_roots"`
	RepairedIndexes int `json:"repaired_indexes"`
}

func (r *Report) Repaired() int {
	return r.RepairedRoots + r.RepairedIndexes
}

func (r *Report) add(o Report) {
	r.Scanned += o.Scanned
	r.Skipped += o.Skipped
	r.RepairedRoots += o.RepairedRoots
	r.RepairedIndexes += o.RepairedIndexes
}

// Reconciler recreates a missing Students or student-emails document from the
// course profile it was derived from. Existing documents are never touched.
type Reconciler struct {
	store          DocumentStore
	courses        []string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Reconciler) {
		r.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithCourses limits the sweep to the given course collections.
func WithCourses(courses ...string) Option {
	return func(r *Reconciler) {
		r.courses = courses
	}
}

func New(store DocumentStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:   store,
		courses: models.Courses,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep scans every course collection concurrently. The first store error
// cancels the remaining courses; repairs already written stay written.
func (r *Reconciler) Sweep(ctx context.Context) (*Report, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	report := &Report{Courses: len(r.courses)}

	for _, course := range r.courses {
		g.Go(func() error {
			partial, err := r.sweepCourse(ctx, course)
			mu.Lock()
			report.add(partial)
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("reconcile course %s: %w", course, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if r.metrics != nil {
		r.metrics.AddReconciled(profile.StudentsCollection, report.RepairedRoots)
		r.metrics.AddReconciled(profile.StudentEmailsCollection, report.RepairedIndexes)
	}
	r.logger.InfoContext(ctx, "reconciliation sweep finished",
		"courses", report.Courses,
		"scanned", report.Scanned,
		"skipped", report.Skipped,
		"repaired_roots", report.RepairedRoots,
		"repaired_indexes", report.RepairedIndexes,
	)
	return report, err
}

func (r *Reconciler) sweepCourse(ctx context.Context, course string) (Report, error) {
	var report Report
	docs, err := r.store.ListDocuments(ctx, profile.CourseCollection(course))
	if err != nil {
		return report, err
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		student := models.StudentCourseProfileFromFields(doc.Fields)
		if student.UID == "" || student.Email == "" {
			report.Skipped++
			r.logger.WarnContext(ctx, "course profile missing uid or email",
				"course", course, "key", doc.Key)
			continue
		}

		repaired, err := r.ensure(ctx, profile.StudentsCollection, student.Email, student.Root().ToFields())
		if err != nil {
			return report, err
		}
		if repaired {
			report.RepairedRoots++
			r.emit(ctx, student, profile.StudentsCollection)
		}

		repaired, err = r.ensure(ctx, profile.StudentEmailsCollection, student.UID, student.EmailIndex().ToFields())
		if err != nil {
			return report, err
		}
		if repaired {
			report.RepairedIndexes++
			r.emit(ctx, student, profile.StudentEmailsCollection)
		}
	}
	return report, nil
}

// ensure writes fields only when path/key does not exist yet.
func (r *Reconciler) ensure(ctx context.Context, path, key string, fields profile.Fields) (bool, error) {
	_, err := r.store.ReadDocument(ctx, path, key)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return false, err
	}
	if err := r.store.WriteDocument(ctx, path, key, fields); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reconciler) emit(ctx context.Context, student models.StudentCourseProfile, collection string) {
	r.logger.InfoContext(ctx, string(audit.EventProjectionRepaired),
		"user_id", student.UID,
		"collection", collection,
		"log_type", "audit",
	)
	if r.auditPublisher == nil {
		return
	}
	err := r.auditPublisher.Emit(ctx, audit.Event{
		UserID: student.UID,
		Actor:  string(models.ActorStudent),
		Action: string(audit.EventProjectionRepaired),
		Email:  student.Email,
		Reason: collection,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}
}
