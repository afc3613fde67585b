package credential

import (
	"errors"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// Identity is what the provider returns for a created or authenticated
// credential. Email is the provider-normalized address; IDToken is only set
// by Authenticate.
type Identity struct {
	ID      string
	Email   string
	IDToken string
}

// Record is the persisted credential.
type Record struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Code is a provider failure code. Values follow the "auth/<reason>" shape
// clients already branch on.
type Code string

const (
	CodeEmailAlreadyInUse    Code = "auth/email-already-in-use"
	CodeInvalidEmail         Code = "auth/invalid-email"
	CodeWeakPassword         Code = "auth/weak-password"
	CodeMissingPassword      Code = "auth/missing-password"
	CodeInvalidCredential    Code = "auth/invalid-credential"
	CodeUserNotFound         Code = "auth/user-not-found"
	CodeWrongPassword        Code = "auth/wrong-password"
	CodeTooManyRequests      Code = "auth/too-many-requests"
	CodeNetworkRequestFailed Code = "auth/network-request-failed"
	CodeInternalError        Code = "auth/internal-error"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// Error is a provider failure. Message is user-facing and is surfaced verbatim
// by the registration workflows.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message + " (" + string(e.Code) + ")"
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the provider code from err, if any.
func CodeOf(err error) (Code, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return "", false
}

// NormalizeEmail is the canonical form the provider stores and returns.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || !govalidator.IsEmail(email) {
		return newError(CodeInvalidEmail, "The email address is badly formatted.", nil)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return newError(CodeMissingPassword, "A password is required.", nil)
	}
	if len([]rune(password)) < MinPasswordLength {
		return newError(CodeWeakPassword, "Password should be at least 6 characters.", nil)
	}
	return nil
}
