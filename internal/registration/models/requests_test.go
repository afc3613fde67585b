package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "campusid/pkg/domain-errors"
)

func validStudentRegistration() StudentRegistration {
	return StudentRegistration{
		Email:           " ada@example.com ",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FullName:        " Ada Lovelace ",
		RollNumber:      " R-7 ",
		Course:          " MCA ",
		MobileNumber:    " 5550101 ",
	}
}

func TestStudentRegistrationNormalize(t *testing.T) {
	req := validStudentRegistration()
	req.Normalize()

	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, "Ada Lovelace", req.FullName)
	assert.Equal(t, "R-7", req.RollNumber)
	assert.Equal(t, "MCA", req.Course)
	assert.Equal(t, "5550101", req.MobileNumber)
	require.NoError(t, req.Validate())
}

func TestStudentRegistrationValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StudentRegistration)
		code   dErrors.Code
		msg    string
	}{
		{"missing email", func(r *StudentRegistration) { r.Email = "" }, dErrors.CodeValidation, "email is required"},
		{"missing full name", func(r *StudentRegistration) { r.FullName = "" }, dErrors.CodeValidation, "fullName is required"},
		{"password too long", func(r *StudentRegistration) { r.Password = strings.Repeat("p", 73) }, dErrors.CodeValidation, "password is too long"},
		{"unknown course", func(r *StudentRegistration) { r.Course = "Physics" }, dErrors.CodeInvalidInput, "course must be one of"},
		{"lower-cased course", func(r *StudentRegistration) { r.Course = "mca" }, dErrors.CodeInvalidInput, "course must be one of"},
		{"letters in mobile", func(r *StudentRegistration) { r.MobileNumber = "call me" }, dErrors.CodeValidation, "mobileNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validStudentRegistration()
			req.Normalize()
			tt.mutate(&req)

			err := req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	t.Run("empty course is left to the workflow", func(t *testing.T) {
		req := validStudentRegistration()
		req.Normalize()
		req.Course = ""
		assert.NoError(t, req.Validate())
	})

	t.Run("nil request", func(t *testing.T) {
		var req *StudentRegistration
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeBadRequest))
	})
}

func TestCredentialsValidate(t *testing.T) {
	req := Credentials{Email: "  dean@example.com\t", Password: "secret1"}
	req.Normalize()
	assert.Equal(t, "dean@example.com", req.Email)
	require.NoError(t, req.Validate())

	req.Password = ""
	assert.ErrorContains(t, req.Validate(), "password is required")
}
