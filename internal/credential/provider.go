package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusid/internal/credential/lockout"
	"campusid/pkg/platform/sentinel"
	"campusid/pkg/requestcontext"
)

// Store persists credential records. Insert must reject a second record for
// the same email atomically with sentinel.ErrConflict.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	FindByEmail(ctx context.Context, email string) (*Record, error)
}

// Lockout throttles repeated sign-in failures per email and client IP.
type Lockout interface {
	Check(ctx context.Context, identifier, ip string) (*lockout.Result, error)
	RecordFailure(ctx context.Context, identifier, ip string) (*lockout.Record, error)
	Clear(ctx context.Context, identifier, ip string) error
}

// Provider creates and authenticates email/password credentials.
type Provider struct {
	store      Store
	tokens     *TokenIssuer
	lockout    Lockout
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Provider)

func WithBcryptCost(cost int) Option {
	return func(p *Provider) {
		p.bcryptCost = cost
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithLockout(l Lockout) Option {
	return func(p *Provider) {
		p.lockout = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func NewProvider(store Store, tokens *TokenIssuer, opts ...Option) *Provider {
	p := &Provider{
		store:      store,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateCredential registers a new email/password pair. The returned
// Identity carries the normalized email.
func (p *Provider) CreateCredential(ctx context.Context, email, password string) (Identity, error) {
	normalized := NormalizeEmail(email)
	if err := validateEmail(normalized); err != nil {
		return Identity{}, err
	}
	if err := validatePassword(password); err != nil {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Identity{}, newError(CodeWeakPassword, "Password is too long.", err)
		}
		return Identity{}, newError(CodeInternalError, "An internal error has occurred.", err)
	}

	rec := Record{
		ID:           uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}
	if err := p.store.Insert(ctx, rec); err != nil {
		return Identity{}, p.storeError(ctx, "insert credential", err)
	}

	p.logger.InfoContext(ctx, "credential created", "user_id", rec.ID)
	return Identity{ID: rec.ID, Email: rec.Email}, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password both yield CodeInvalidCredential so callers cannot enumerate
// accounts. With a Lockout configured, repeated failures from one client
// yield CodeTooManyRequests until the lockout window passes.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	normalized := NormalizeEmail(email)
	if err := validateEmail(normalized); err != nil {
		return Identity{}, err
	}
	if password == "" {
		return Identity{}, newError(CodeMissingPassword, "A password is required.", nil)
	}

	ip := requestcontext.ClientIP(ctx)
	if p.lockout != nil {
		result, err := p.lockout.Check(ctx, normalized, ip)
		switch {
		case err != nil:
			// Fail open when the lockout store is unreachable.
			p.logger.ErrorContext(ctx, "lockout check failed", "error", err)
		case !result.Allowed:
			p.logger.WarnContext(ctx, "sign-in throttled",
				"failure_count", result.FailureCount,
				"retry_after", result.RetryAfter,
			)
			return Identity{}, newError(CodeTooManyRequests,
				"Access to this account has been temporarily disabled due to many failed login attempts. Try again later.", nil)
		}
	}

	rec, err := p.store.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Identity{}, p.rejectCredential(ctx, normalized, ip)
		}
		return Identity{}, p.storeError(ctx, "find credential", err)
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Identity{}, p.rejectCredential(ctx, normalized, ip)
		}
		return Identity{}, newError(CodeInternalError, "An internal error has occurred.", err)
	}

	if p.lockout != nil {
		if err := p.lockout.Clear(ctx, normalized, ip); err != nil {
			p.logger.ErrorContext(ctx, "lockout clear failed", "error", err)
		}
	}

	id := Identity{ID: rec.ID, Email: rec.Email}
	if p.tokens != nil {
		token, err := p.tokens.Issue(id)
		if err != nil {
			return Identity{}, newError(CodeInternalError, "An internal error has occurred.", err)
		}
		id.IDToken = token
	}
	return id, nil
}

func (p *Provider) rejectCredential(ctx context.Context, email, ip string) *Error {
	if p.lockout != nil {
		if _, err := p.lockout.RecordFailure(ctx, email, ip); err != nil {
			p.logger.ErrorContext(ctx, "lockout record failed", "error", err)
		}
	}
	return invalidCredential()
}

func invalidCredential() *Error {
	return newError(CodeInvalidCredential, "Invalid email or password.", nil)
}

func (p *Provider) storeError(ctx context.Context, op string, err error) *Error {
	if errors.Is(err, sentinel.ErrConflict) {
		return newError(CodeEmailAlreadyInUse, "The email address is already in use by another account.", err)
	}
	p.logger.ErrorContext(ctx, "credential store failure", "op", op, "error", err)
	return newError(CodeNetworkRequestFailed, "A network error has occurred. Please try again.", fmt.Errorf("%s: %w", op, err))
}
