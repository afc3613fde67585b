package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"campusid/internal/registration/classify"
	"campusid/internal/registration/handler/mocks"
	"campusid/internal/registration/models"
	dErrors "campusid/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path, body string) (*httptest.ResponseRecorder, map[string]string) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp map[string]string
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (s *HandlerSuite) TestRegisterAdmin() {
	s.Run("created with redirect and uid", func() {
		s.service.EXPECT().RegisterAdmin(gomock.Any(), models.AdminRegistration{
			AdminCode:       "ADMIN123x",
			Email:           "dean@example.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
			FullName:        "Dean",
			MobileNumber:    "5550100",
		}).Return(&models.Outcome{Redirect: "/admin/login", UserID: "uid-1"}, nil)

		rec, resp := s.do(http.MethodPost, "/admin/register", `{
			"adminCode": "ADMIN123x",
			"email": "  dean@example.com ",
			"password": "secret1",
			"confirmPassword": "secret1",
			"fullName": " Dean ",
			"mobileNumber": "5550100"
		}`)
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("/admin/login", resp["redirect"])
		s.Equal("uid-1", resp["uid"])
	})

	s.Run("classified failure carries kind and message", func() {
		s.service.EXPECT().RegisterAdmin(gomock.Any(), gomock.Any()).
			Return(nil, classify.New(classify.KindInvalidAdminCode, "Invalid admin code."))

		rec, resp := s.do(http.MethodPost, "/admin/register",
			`{"adminCode":"x","email":"a@b.com","password":"secret1","confirmPassword":"secret1","fullName":"A"}`)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal(string(dErrors.CodeForbidden), resp["error"])
		s.Equal("InvalidAdminCode", resp["kind"])
		s.Equal("Invalid admin code.", resp["error_description"])
	})

	s.Run("store write failure still shows its message", func() {
		s.service.EXPECT().RegisterAdmin(gomock.Any(), gomock.Any()).
			Return(nil, classify.New(classify.KindStoreWriteFailed, "Your account was created but your profile could not be saved."))

		rec, resp := s.do(http.MethodPost, "/admin/register",
			`{"adminCode":"ADMIN123x","email":"a@b.com","password":"secret1","confirmPassword":"secret1","fullName":"A"}`)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal("StoreWriteFailed", resp["kind"])
		s.NotEmpty(resp["error_description"])
	})

	s.Run("missing email is rejected before the workflow", func() {
		rec, resp := s.do(http.MethodPost, "/admin/register",
			`{"adminCode":"ADMIN123x","email":"  ","password":"secret1","confirmPassword":"secret1","fullName":"A"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeValidation), resp["error"])
		s.Equal("email is required", resp["error_description"])
	})

	s.Run("unknown fields are rejected", func() {
		rec, resp := s.do(http.MethodPost, "/admin/register", `{"email":"a@b.com","role":"root"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeBadRequest), resp["error"])
	})
}

func (s *HandlerSuite) TestRegisterStudent() {
	s.Run("created", func() {
		s.service.EXPECT().RegisterStudent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.StudentRegistration) (*models.Outcome, error) {
				s.Equal("MCA", req.Course)
				s.Equal("R-7", req.RollNumber)
				return &models.Outcome{Redirect: "/student/login", UserID: "uid-2"}, nil
			})

		rec, resp := s.do(http.MethodPost, "/student/register",
			`{"email":"ada@example.com","password":"secret1","confirmPassword":"secret1","fullName":"Ada","rollNumber":" R-7 ","course":"MCA","mobileNumber":"5550101"}`)
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("/student/login", resp["redirect"])
	})

	s.Run("empty course reaches the workflow", func() {
		s.service.EXPECT().RegisterStudent(gomock.Any(), gomock.Any()).
			Return(nil, classify.New(classify.KindMissingRequiredField, "Course and roll number are required."))

		rec, resp := s.do(http.MethodPost, "/student/register",
			`{"email":"ada@example.com","password":"secret1","confirmPassword":"secret1","fullName":"Ada","rollNumber":"R-7","course":""}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("MissingRequiredField", resp["kind"])
	})

	s.Run("unknown course is rejected", func() {
		rec, resp := s.do(http.MethodPost, "/student/register",
			`{"email":"ada@example.com","password":"secret1","confirmPassword":"secret1","fullName":"Ada","rollNumber":"R-7","course":"PhD"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeInvalidInput), resp["error"])
	})

	s.Run("non numeric mobile number is rejected", func() {
		rec, _ := s.do(http.MethodPost, "/student/register",
			`{"email":"ada@example.com","password":"secret1","confirmPassword":"secret1","fullName":"Ada","rollNumber":"R-7","course":"MA","mobileNumber":"call me"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("duplicate email", func() {
		s.service.EXPECT().RegisterStudent(gomock.Any(), gomock.Any()).
			Return(nil, classify.New(classify.KindDuplicateEmail, "The email address is already in use by another account."))

		rec, resp := s.do(http.MethodPost, "/student/register",
			`{"email":"ada@example.com","password":"secret1","confirmPassword":"secret1","fullName":"Ada","rollNumber":"R-7","course":"MBA"}`)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("DuplicateEmail", resp["kind"])
	})
}

func (s *HandlerSuite) TestLogin() {
	s.Run("admin login forwards actor and returns token", func() {
		s.service.EXPECT().Login(gomock.Any(), models.ActorAdmin, models.Credentials{Email: "dean@example.com", Password: "secret1"}).
			Return(&models.Outcome{Redirect: "/admin/dashboard", UserID: "uid-1", IDToken: "tok"}, nil)

		rec, resp := s.do(http.MethodPost, "/admin/login", `{"email":"dean@example.com","password":"secret1"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("/admin/dashboard", resp["redirect"])
		s.Equal("tok", resp["id_token"])
	})

	s.Run("student login failure is unauthorized", func() {
		s.service.EXPECT().Login(gomock.Any(), models.ActorStudent, gomock.Any()).
			Return(nil, &classify.Failure{
				Kind:    classify.KindUnknown,
				Code:    dErrors.CodeUnauthorized,
				Message: "Invalid email or password.",
			})

		rec, resp := s.do(http.MethodPost, "/student/login", `{"email":"ada@example.com","password":"nope"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("Invalid email or password.", resp["error_description"])
		s.Empty(resp["redirect"])
	})

	s.Run("missing password", func() {
		rec, resp := s.do(http.MethodPost, "/student/login", `{"email":"ada@example.com"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("password is required", resp["error_description"])
	})
}

func (s *HandlerSuite) TestListCourses() {
	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	var resp CoursesResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(models.Courses, resp.Courses)
}
