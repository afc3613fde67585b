// Package classify maps workflow failures onto the fixed set of kinds shown
// to users. Classification is pure: the same stage and error always yield the
// same Failure.
package classify

import (
	"errors"

	"campusid/internal/credential"
	dErrors "campusid/pkg/domain-errors"
)

type Kind string

const (
	KindInvalidAdminCode         Kind = "InvalidAdminCode"
	KindPasswordMismatch         Kind = "PasswordMismatch"
	KindMissingRequiredField     Kind = "MissingRequiredField"
	KindDuplicateAdmin           Kind = "DuplicateAdmin"
	KindDuplicateRollNumber      Kind = "DuplicateRollNumber"
	KindDuplicateEmail           Kind = "DuplicateEmail"
	KindCredentialCreationFailed Kind = "CredentialCreationFailed"
	KindStoreWriteFailed         Kind = "StoreWriteFailed"
	KindUnknown                  Kind = "Unknown"
)

// Code is the default transport code for the kind.
func (k Kind) Code() dErrors.Code {
	switch k {
	case KindInvalidAdminCode:
		return dErrors.CodeForbidden
	case KindPasswordMismatch, KindMissingRequiredField:
		return dErrors.CodeInvalidInput
	case KindDuplicateAdmin, KindDuplicateRollNumber, KindDuplicateEmail:
		return dErrors.CodeConflict
	case KindCredentialCreationFailed:
		return dErrors.CodeBadRequest
	default:
		return dErrors.CodeInternal
	}
}

// Failure is a classified workflow error. Message is safe to show the user.
type Failure struct {
	Kind    Kind
	Code    dErrors.Code
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// DomainError converts the failure for the HTTP edge.
func (f *Failure) DomainError() error {
	return &dErrors.Error{Code: f.Code, Message: f.Message, Err: f.Err}
}

// As extracts a Failure from err.
func As(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Stage names the workflow step an error came from.
type Stage int

const (
	StageAdminCredential Stage = iota
	StageStudentCredential
	StageLogin
	StageProfileRead
	StageProfileWrite
)

const (
	messageStoreWrite = "Your account was created but your profile could not be saved. Please contact support."
	messageUnexpected = "An unexpected error occurred. Please try again."
)

// New builds a Failure for gate and pre-check outcomes that are not errors
// from a collaborator.
func New(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Code: kind.Code(), Message: message}
}

// Classify maps an error raised at stage to a Failure. A nil error yields nil;
// an existing Failure is returned unchanged.
func Classify(stage Stage, err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := As(err); ok {
		return f
	}

	switch stage {
	case StageProfileWrite:
		return &Failure{Kind: KindStoreWriteFailed, Code: dErrors.CodeInternal, Message: messageStoreWrite, Err: err}
	case StageProfileRead:
		return &Failure{Kind: KindUnknown, Code: dErrors.CodeInternal, Message: messageUnexpected, Err: err}
	}

	var perr *credential.Error
	if !errors.As(err, &perr) {
		return &Failure{Kind: KindUnknown, Code: dErrors.CodeInternal, Message: messageUnexpected, Err: err}
	}

	switch stage {
	case StageAdminCredential:
		return creation(perr, err, false)
	case StageStudentCredential:
		return creation(perr, err, true)
	default:
		return login(perr, err)
	}
}

func creation(perr *credential.Error, err error, studentFlow bool) *Failure {
	f := &Failure{Kind: KindCredentialCreationFailed, Message: perr.Message, Err: err}
	switch perr.Code {
	case credential.CodeEmailAlreadyInUse:
		f.Code = dErrors.CodeConflict
		if studentFlow {
			f.Kind = KindDuplicateEmail
		}
	case credential.CodeInvalidEmail, credential.CodeWeakPassword, credential.CodeMissingPassword:
		f.Code = dErrors.CodeInvalidInput
	case credential.CodeNetworkRequestFailed, credential.CodeInternalError:
		f.Code = dErrors.CodeUnavailable
	default:
		f.Kind = KindUnknown
		f.Code = dErrors.CodeInternal
	}
	return f
}

// login keeps the provider message; only the transport code varies.
func login(perr *credential.Error, err error) *Failure {
	f := &Failure{Kind: KindUnknown, Message: perr.Message, Err: err}
	switch perr.Code {
	case credential.CodeInvalidCredential, credential.CodeUserNotFound,
		credential.CodeWrongPassword, credential.CodeInvalidEmail, credential.CodeMissingPassword:
		f.Code = dErrors.CodeUnauthorized
	case credential.CodeTooManyRequests:
		f.Code = dErrors.CodeRateLimited
	case credential.CodeNetworkRequestFailed, credential.CodeInternalError:
		f.Code = dErrors.CodeUnavailable
	default:
		f.Code = dErrors.CodeInternal
	}
	return f
}
