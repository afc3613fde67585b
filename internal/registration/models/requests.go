package models

import (
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	dErrors "campusid/pkg/domain-errors"
)

const (
	maxEmailLength    = 254
	maxPasswordLength = 72
	maxFieldLength    = 128
)

// Validate checks shape only. Password confirmation, missing course or roll
// number and every uniqueness rule belong to the workflow so they surface as
// classified failures.

func (r *AdminRegistration) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.MobileNumber = strings.TrimSpace(r.MobileNumber)
}

func (r *AdminRegistration) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := requireFields(map[string]string{
		"email":    r.Email,
		"password": r.Password,
		"fullName": r.FullName,
	}); err != nil {
		return err
	}
	if err := checkLengths(r.Email, r.Password, r.ConfirmPassword, r.FullName, r.MobileNumber, r.AdminCode); err != nil {
		return err
	}
	return checkMobile(r.MobileNumber)
}

func (r *StudentRegistration) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	r.Course = strings.TrimSpace(r.Course)
	r.MobileNumber = strings.TrimSpace(r.MobileNumber)
}

// Follows validation order: Required -> Size -> Semantic.
func (r *StudentRegistration) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := requireFields(map[string]string{
		"email":    r.Email,
		"password": r.Password,
		"fullName": r.FullName,
	}); err != nil {
		return err
	}
	if err := checkLengths(r.Email, r.Password, r.ConfirmPassword, r.FullName, r.RollNumber, r.MobileNumber); err != nil {
		return err
	}
	if r.Course != "" && !IsKnownCourse(r.Course) {
		return dErrors.New(dErrors.CodeInvalidInput, "course must be one of "+strings.Join(Courses, ", "))
	}
	return checkMobile(r.MobileNumber)
}

func (r *Credentials) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
}

func (r *Credentials) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := requireFields(map[string]string{"email": r.Email, "password": r.Password}); err != nil {
		return err
	}
	return checkLengths(r.Email, r.Password)
}

func requireFields(fields map[string]string) error {
	for _, name := range []string{"email", "password", "fullName"} {
		value, ok := fields[name]
		if ok && govalidator.IsNull(value) {
			return dErrors.New(dErrors.CodeValidation, name+" is required")
		}
	}
	return nil
}

// checkLengths expects the email first and the password second.
func checkLengths(email, password string, rest ...string) error {
	if !govalidator.IsByteLength(email, 0, maxEmailLength) {
		return dErrors.New(dErrors.CodeValidation, "email is too long")
	}
	if !govalidator.IsByteLength(password, 0, maxPasswordLength) {
		return dErrors.New(dErrors.CodeValidation, "password is too long")
	}
	for _, v := range rest {
		if utf8.RuneCountInString(v) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "field exceeds 128 characters")
		}
	}
	return nil
}

func checkMobile(mobile string) error {
	if mobile != "" && !govalidator.IsNumeric(strings.TrimPrefix(mobile, "+")) {
		return dErrors.New(dErrors.CodeValidation, "mobileNumber must contain digits only")
	}
	return nil
}
