package models

import "campusid/internal/profile"

// Actor distinguishes the two account populations.
type Actor string

const (
	ActorAdmin   Actor = "admin"
	ActorStudent Actor = "student"
)

func (a Actor) Valid() bool {
	return a == ActorAdmin || a == ActorStudent
}

// LoginRoute is where a successful registration sends the user.
func (a Actor) LoginRoute() string {
	return "/" + string(a) + "/login"
}

// DashboardRoute is where a successful login sends the user.
func (a Actor) DashboardRoute() string {
	return "/" + string(a) + "/dashboard"
}

// DefaultAdminCode gates admin self-registration unless configured otherwise.
const DefaultAdminCode = "ADMIN123x"

// Courses offered at sign-up.
var Courses = []string{"MCA", "MBA", "MA", "MCom", "MSc"}

func IsKnownCourse(course string) bool {
	for _, c := range Courses {
		if c == course {
			return true
		}
	}
	return false
}

// Document field names.
const (
	FieldUID          = "uid"
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldRollNumber   = "rollNumber"
	FieldCourse       = "course"
	FieldMobileNumber = "mobileNumber"
)

type AdminRegistration struct {
	AdminCode       string `json:"adminCode"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
	MobileNumber    string `json:"mobileNumber"`
}

type StudentRegistration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
	RollNumber      string `json:"rollNumber"`
	Course          string `json:"course"`
	MobileNumber    string `json:"mobileNumber"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome is a successful workflow result. Redirect is the route the caller
// navigates to; UserID and IDToken are set when known.
type Outcome struct {
	Redirect string
	UserID   string
	IDToken  string
}

// AdminProfile lives in Admins keyed by email.
type AdminProfile struct {
	UID          string
	FullName     string
	Email        string
	MobileNumber string
}

func (p AdminProfile) ToFields() profile.Fields {
	return profile.Fields{
		FieldUID:          p.UID,
		FieldFullName:     p.FullName,
		FieldEmail:        p.Email,
		FieldMobileNumber: p.MobileNumber,
	}
}

// StudentCourseProfile lives in Students-list/Course/{course} keyed by uid.
// It is the most complete student record and the source the other two
// projections are derived from.
type StudentCourseProfile struct {
	UID          string
	FullName     string
	Email        string
	RollNumber   string
	Course       string
	MobileNumber string
}

func (p StudentCourseProfile) ToFields() profile.Fields {
	return profile.Fields{
		FieldUID:          p.UID,
		FieldFullName:     p.FullName,
		FieldEmail:        p.Email,
		FieldRollNumber:   p.RollNumber,
		FieldCourse:       p.Course,
		FieldMobileNumber: p.MobileNumber,
	}
}

func StudentCourseProfileFromFields(f profile.Fields) StudentCourseProfile {
	return StudentCourseProfile{
		UID:          f[FieldUID],
		FullName:     f[FieldFullName],
		Email:        f[FieldEmail],
		RollNumber:   f[FieldRollNumber],
		Course:       f[FieldCourse],
		MobileNumber: f[FieldMobileNumber],
	}
}

// Root projects the Students document.
func (p StudentCourseProfile) Root() StudentRootProfile {
	return StudentRootProfile{
		UID:        p.UID,
		FullName:   p.FullName,
		Email:      p.Email,
		RollNumber: p.RollNumber,
		Course:     p.Course,
	}
}

// EmailIndex projects the student-emails document.
func (p StudentCourseProfile) EmailIndex() StudentEmailIndex {
	return StudentEmailIndex{Email: p.Email}
}

// StudentRootProfile lives in Students keyed by email.
type StudentRootProfile struct {
	UID        string
	FullName   string
	Email      string
	RollNumber string
	Course     string
}

func (p StudentRootProfile) ToFields() profile.Fields {
	return profile.Fields{
		FieldUID:        p.UID,
		FieldFullName:   p.FullName,
		FieldEmail:      p.Email,
		FieldRollNumber: p.RollNumber,
		FieldCourse:     p.Course,
	}
}

// StudentEmailIndex lives in student-emails keyed by uid.
type StudentEmailIndex struct {
	Email string
}

func (p StudentEmailIndex) ToFields() profile.Fields {
	return profile.Fields{FieldEmail: p.Email}
}
