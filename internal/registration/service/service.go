package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"campusid/internal/credential"
	"campusid/internal/profile"
	"campusid/internal/registration/classify"
	"campusid/internal/registration/metrics"
	"campusid/internal/registration/models"
	"campusid/pkg/attrs"
	dErrors "campusid/pkg/domain-errors"
	"campusid/pkg/platform/audit"
	"campusid/pkg/platform/sentinel"
	"campusid/pkg/requestcontext"
)

type CredentialProvider interface {
	CreateCredential(ctx context.Context, email, password string) (credential.Identity, error)
	Authenticate(ctx context.Context, email, password string) (credential.Identity, error)
}

type ProfileStore interface {
	ReadDocument(ctx context.Context, path, key string) (*profile.Document, error)
	WriteDocument(ctx context.Context, path, key string, fields profile.Fields) error
	QueryEqual(ctx context.Context, path, field, value string, limit int) ([]profile.Document, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	workflowRegister = "register"
	workflowLogin    = "login"

	tracerName = "campusid/registration"
)

// Service runs the registration and login workflows. Each call is a strictly
// ordered chain of provider and store calls with no retries; no state is
// shared between calls.
type Service struct {
	credentials    CredentialProvider
	profiles       ProfileStore
	adminCode      string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAdminCode overrides models.DefaultAdminCode.
func WithAdminCode(code string) Option {
	return func(s *Service) {
		s.adminCode = code
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. Both collaborators are required.
func New(credentials CredentialProvider, profiles ProfileStore, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, errors.New("credential provider is required")
	}
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}
	s := &Service{
		credentials: credentials,
		profiles:    profiles,
		adminCode:   models.DefaultAdminCode,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.adminCode == "" {
		return nil, errors.New("admin code must not be empty")
	}
	return s, nil
}

// RegisterAdmin creates an admin credential and its Admins profile.
// Gates run in order and each one short-circuits: admin code, password
// confirmation, existing profile, credential creation.
func (s *Service) RegisterAdmin(ctx context.Context, req models.AdminRegistration) (*models.Outcome, error) {
	return s.run(ctx, workflowRegister, models.ActorAdmin, func(ctx context.Context) (*models.Outcome, *classify.Failure) {
		return s.registerAdmin(ctx, req)
	})
}

func (s *Service) registerAdmin(ctx context.Context, req models.AdminRegistration) (*models.Outcome, *classify.Failure) {
	actor := models.ActorAdmin

	if subtle.ConstantTimeCompare([]byte(req.AdminCode), []byte(s.adminCode)) != 1 {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindInvalidAdminCode, "Invalid admin code."))
	}
	if req.Password != req.ConfirmPassword {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindPasswordMismatch, "Passwords do not match."))
	}

	exists, err := s.documentExists(ctx, profile.AdminsCollection, credential.NormalizeEmail(req.Email))
	if err != nil {
		return nil, s.reject(ctx, actor, req.Email, classify.Classify(classify.StageProfileRead, err))
	}
	if exists {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindDuplicateAdmin, "An admin account with this email already exists."))
	}

	identity, err := s.credentials.CreateCredential(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.reject(ctx, actor, req.Email, classify.Classify(classify.StageAdminCredential, err))
	}

	admin := models.AdminProfile{
		UID:          identity.ID,
		FullName:     req.FullName,
		Email:        identity.Email,
		MobileNumber: req.MobileNumber,
	}
	if err := s.profiles.WriteDocument(ctx, profile.AdminsCollection, identity.Email, admin.ToFields()); err != nil {
		return nil, s.incomplete(ctx, actor, identity, nil, err)
	}

	s.logAudit(ctx, audit.EventAdminRegistered, actor, "user_id", identity.ID, "email", identity.Email)
	return &models.Outcome{Redirect: actor.LoginRoute(), UserID: identity.ID}, nil
}

// RegisterStudent creates a student credential and three profile documents:
// the course profile, the root profile and the email index, in that order.
// Roll numbers are unique per course only.
func (s *Service) RegisterStudent(ctx context.Context, req models.StudentRegistration) (*models.Outcome, error) {
	return s.run(ctx, workflowRegister, models.ActorStudent, func(ctx context.Context) (*models.Outcome, *classify.Failure) {
		return s.registerStudent(ctx, req)
	})
}

func (s *Service) registerStudent(ctx context.Context, req models.StudentRegistration) (*models.Outcome, *classify.Failure) {
	actor := models.ActorStudent

	if req.Password != req.ConfirmPassword {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindPasswordMismatch, "Passwords do not match."))
	}
	if req.Course == "" || req.RollNumber == "" {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindMissingRequiredField, "Course and roll number are required."))
	}
	// Roll number uniqueness and reconciliation are scoped to catalogue courses.
	if !models.IsKnownCourse(req.Course) {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindMissingRequiredField,
			"Select one of the offered courses: "+strings.Join(models.Courses, ", ")+"."))
	}

	coursePath := profile.CourseCollection(req.Course)
	matches, err := s.profiles.QueryEqual(ctx, coursePath, models.FieldRollNumber, req.RollNumber, 1)
	if err != nil {
		return nil, s.reject(ctx, actor, req.Email, classify.Classify(classify.StageProfileRead, err))
	}
	if len(matches) > 0 {
		return nil, s.reject(ctx, actor, req.Email, classify.New(classify.KindDuplicateRollNumber, "A student with this roll number is already registered for this course."))
	}

	identity, err := s.credentials.CreateCredential(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.reject(ctx, actor, req.Email, classify.Classify(classify.StageStudentCredential, err))
	}

	student := models.StudentCourseProfile{
		UID:          identity.ID,
		FullName:     req.FullName,
		Email:        identity.Email,
		RollNumber:   req.RollNumber,
		Course:       req.Course,
		MobileNumber: req.MobileNumber,
	}
	writes := []struct {
		path   string
		key    string
		fields profile.Fields
	}{
		{coursePath, identity.ID, student.ToFields()},
		{profile.StudentsCollection, identity.Email, student.Root().ToFields()},
		{profile.StudentEmailsCollection, identity.ID, student.EmailIndex().ToFields()},
	}

	written := make([]string, 0, len(writes))
	for _, w := range writes {
		if err := s.profiles.WriteDocument(ctx, w.path, w.key, w.fields); err != nil {
			return nil, s.incomplete(ctx, actor, identity, written, err)
		}
		written = append(written, w.path+"/"+w.key)
	}

	s.logAudit(ctx, audit.EventStudentRegistered, actor, "user_id", identity.ID, "email", identity.Email, "course", req.Course)
	return &models.Outcome{Redirect: actor.LoginRoute(), UserID: identity.ID}, nil
}

// Login authenticates against the credential provider only. No profile
// document is read.
func (s *Service) Login(ctx context.Context, actor models.Actor, req models.Credentials) (*models.Outcome, error) {
	if !actor.Valid() {
		return nil, &classify.Failure{
			Kind:    classify.KindUnknown,
			Code:    dErrors.CodeBadRequest,
			Message: "Unknown account type.",
		}
	}
	return s.run(ctx, workflowLogin, actor, func(ctx context.Context) (*models.Outcome, *classify.Failure) {
		identity, err := s.credentials.Authenticate(ctx, req.Email, req.Password)
		if err != nil {
			failure := classify.Classify(classify.StageLogin, err)
			reason := string(failure.Kind)
			if code, ok := credential.CodeOf(err); ok {
				reason = string(code)
			}
			s.logAudit(ctx, audit.EventLoginFailed, actor, "email", credential.NormalizeEmail(req.Email), "reason", reason)
			return nil, failure
		}

		s.logAudit(ctx, audit.EventLoginSucceeded, actor, "user_id", identity.ID, "email", identity.Email)
		return &models.Outcome{
			Redirect: actor.DashboardRoute(),
			UserID:   identity.ID,
			IDToken:  identity.IDToken,
		}, nil
	})
}

func (s *Service) LoginAdmin(ctx context.Context, req models.Credentials) (*models.Outcome, error) {
	return s.Login(ctx, models.ActorAdmin, req)
}

func (s *Service) LoginStudent(ctx context.Context, req models.Credentials) (*models.Outcome, error) {
	return s.Login(ctx, models.ActorStudent, req)
}

// run detaches ctx from caller cancellation so a started workflow always
// reaches completion or a classified failure, then records span and metrics.
func (s *Service) run(
	ctx context.Context,
	workflow string,
	actor models.Actor,
	fn func(context.Context) (*models.Outcome, *classify.Failure),
) (*models.Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "registration."+workflow+"."+string(actor),
		trace.WithAttributes(attribute.String("campusid.actor", string(actor))))
	defer span.End()
	start := time.Now()

	out, failure := fn(ctx)

	outcome := "success"
	if failure != nil {
		outcome = string(failure.Kind)
		span.RecordError(failure)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetAttributes(attribute.String("campusid.user_id", out.UserID))
	}
	s.observe(workflow, actor, outcome, start)

	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func (s *Service) documentExists(ctx context.Context, path, key string) (bool, error) {
	_, err := s.profiles.ReadDocument(ctx, path, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) reject(ctx context.Context, actor models.Actor, email string, failure *classify.Failure) *classify.Failure {
	s.logAudit(ctx, audit.EventRegistrationRejected, actor,
		"email", credential.NormalizeEmail(email),
		"reason", string(failure.Kind),
	)
	return failure
}

// incomplete handles a profile write failing after the credential exists.
// Nothing is rolled back; the orphan is logged with what was written so the
// reconciliation sweep or an operator can repair it.
func (s *Service) incomplete(ctx context.Context, actor models.Actor, identity credential.Identity, written []string, err error) *classify.Failure {
	failure := classify.Classify(classify.StageProfileWrite, err)
	s.logger.ErrorContext(ctx, "registration incomplete",
		"actor", string(actor),
		"user_id", identity.ID,
		"email", identity.Email,
		"written", written,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logAudit(ctx, audit.EventRegistrationIncomplete, actor,
		"user_id", identity.ID,
		"email", identity.Email,
		"reason", "written="+strings.Join(written, ","),
	)
	if s.metrics != nil {
		s.metrics.IncrementIncomplete(string(actor))
	}
	return failure
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor models.Actor, attributes ...any) {
	attributes = attrs.AppendNonEmpty(attributes, "request_id", requestcontext.RequestID(ctx))
	args := append(attributes, "event", string(event), "actor", string(actor), "log_type", "audit")

	level := slog.LevelInfo
	if event.Category() == audit.CategorySecurity {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		UserID: attrs.ExtractString(attributes, "user_id"),
		Actor:  string(actor),
		Action: string(event),
		Email:  attrs.ExtractString(attributes, "email"),
		Reason: attrs.ExtractString(attributes, "reason"),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (s *Service) observe(workflow string, actor models.Actor, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveWorkflow(workflow, string(actor), start)
	if workflow == workflowLogin {
		s.metrics.IncrementLogin(string(actor), outcome)
		return
	}
	s.metrics.IncrementRegistration(string(actor), outcome)
}
