package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"campusid/internal/credential"
	dErrors "campusid/pkg/domain-errors"
)

func providerErr(code credential.Code, msg string) error {
	return &credential.Error{Code: code, Message: msg}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		stage   Stage
		err     error
		kind    Kind
		code    dErrors.Code
		message string
	}{
		{
			name:    "admin email in use is a creation failure",
			stage:   StageAdminCredential,
			err:     providerErr(credential.CodeEmailAlreadyInUse, "in use"),
			kind:    KindCredentialCreationFailed,
			code:    dErrors.CodeConflict,
			message: "in use",
		},
		{
			name:    "student email in use is a duplicate email",
			stage:   StageStudentCredential,
			err:     providerErr(credential.CodeEmailAlreadyInUse, "in use"),
			kind:    KindDuplicateEmail,
			code:    dErrors.CodeConflict,
			message: "in use",
		},
		{
			name:    "weak password surfaces provider message",
			stage:   StageStudentCredential,
			err:     providerErr(credential.CodeWeakPassword, "Password should be at least 6 characters."),
			kind:    KindCredentialCreationFailed,
			code:    dErrors.CodeInvalidInput,
			message: "Password should be at least 6 characters.",
		},
		{
			name:    "wrapped provider network failure",
			stage:   StageAdminCredential,
			err:     fmt.Errorf("call: %w", providerErr(credential.CodeNetworkRequestFailed, "offline")),
			kind:    KindCredentialCreationFailed,
			code:    dErrors.CodeUnavailable,
			message: "offline",
		},
		{
			name:    "unrecognized provider code keeps raw message",
			stage:   StageStudentCredential,
			err:     providerErr("auth/quota-exceeded", "Quota exceeded."),
			kind:    KindUnknown,
			code:    dErrors.CodeInternal,
			message: "Quota exceeded.",
		},
		{
			name:    "login bad credentials",
			stage:   StageLogin,
			err:     providerErr(credential.CodeInvalidCredential, "Invalid email or password."),
			kind:    KindUnknown,
			code:    dErrors.CodeUnauthorized,
			message: "Invalid email or password.",
		},
		{
			name:    "login locked out",
			stage:   StageLogin,
			err:     providerErr(credential.CodeTooManyRequests, "Try again later."),
			kind:    KindUnknown,
			code:    dErrors.CodeRateLimited,
			message: "Try again later.",
		},
		{
			name:    "login provider outage",
			stage:   StageLogin,
			err:     providerErr(credential.CodeNetworkRequestFailed, "offline"),
			kind:    KindUnknown,
			code:    dErrors.CodeUnavailable,
			message: "offline",
		},
		{
			name:    "profile write failure",
			stage:   StageProfileWrite,
			err:     errors.New("connection refused"),
			kind:    KindStoreWriteFailed,
			code:    dErrors.CodeInternal,
			message: messageStoreWrite,
		},
		{
			name:    "profile read failure",
			stage:   StageProfileRead,
			err:     errors.New("connection refused"),
			kind:    KindUnknown,
			code:    dErrors.CodeInternal,
			message: messageUnexpected,
		},
		{
			name:    "non-provider error at provider stage",
			stage:   StageAdminCredential,
			err:     errors.New("boom"),
			kind:    KindUnknown,
			code:    dErrors.CodeInternal,
			message: messageUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.stage, tt.err)
			require.NotNil(t, f)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.message, f.Message)
			assert.ErrorIs(t, f, tt.err)
		})
	}
}

func TestClassifyNilAndPassthrough(t *testing.T) {
	assert.Nil(t, Classify(StageLogin, nil))

	original := New(KindDuplicateAdmin, "exists")
	wrapped := fmt.Errorf("outer: %w", original)
	assert.Same(t, original, Classify(StageProfileWrite, wrapped))
}

func TestDomainError(t *testing.T) {
	f := New(KindInvalidAdminCode, "Invalid admin code")
	de, ok := dErrors.From(f.DomainError())
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeForbidden, de.Code)
	assert.Equal(t, "Invalid admin code", de.Message)
}

var allKinds = []Kind{
	KindInvalidAdminCode, KindPasswordMismatch, KindMissingRequiredField,
	KindDuplicateAdmin, KindDuplicateRollNumber, KindDuplicateEmail,
	KindCredentialCreationFailed, KindStoreWriteFailed, KindUnknown,
}

// TestClassifyIsTotalAndDeterministic checks every (stage, code) pair lands on
// a known kind and classifies identically twice.
func TestClassifyIsTotalAndDeterministic(t *testing.T) {
	knownCodes := []credential.Code{
		credential.CodeEmailAlreadyInUse, credential.CodeInvalidEmail, credential.CodeWeakPassword,
		credential.CodeMissingPassword, credential.CodeInvalidCredential, credential.CodeUserNotFound,
		credential.CodeWrongPassword, credential.CodeTooManyRequests, credential.CodeNetworkRequestFailed,
		credential.CodeInternalError,
	}

	rapid.Check(t, func(t *rapid.T) {
		stage := Stage(rapid.IntRange(int(StageAdminCredential), int(StageProfileWrite)).Draw(t, "stage"))
		code := rapid.OneOf(
			rapid.SampledFrom(knownCodes),
			rapid.Map(rapid.StringMatching(`auth/[a-z-]{1,20}`), func(s string) credential.Code { return credential.Code(s) }),
		).Draw(t, "code")
		msg := rapid.String().Draw(t, "message")

		err := providerErr(code, msg)
		first := Classify(stage, err)
		second := Classify(stage, err)

		if first == nil {
			t.Fatalf("nil failure for %v", err)
		}
		if *first != *second {
			t.Fatalf("non-deterministic: %+v vs %+v", first, second)
		}
		if !containsKind(first.Kind) {
			t.Fatalf("unexpected kind %q", first.Kind)
		}
		if first.Code == "" {
			t.Fatalf("missing transport code for %+v", first)
		}
		if stage != StageProfileRead && stage != StageProfileWrite && first.Message != msg {
			t.Fatalf("provider message not preserved: %q vs %q", first.Message, msg)
		}
	})
}

func containsKind(k Kind) bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}
