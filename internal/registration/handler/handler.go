package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusid/internal/registration/classify"
	"campusid/internal/registration/models"
	"campusid/pkg/platform/httputil"
	"campusid/pkg/requestcontext"
)

// Service defines the workflows exposed over HTTP.
type Service interface {
	RegisterAdmin(ctx context.Context, req models.AdminRegistration) (*models.Outcome, error)
	RegisterStudent(ctx context.Context, req models.StudentRegistration) (*models.Outcome, error)
	Login(ctx context.Context, actor models.Actor, req models.Credentials) (*models.Outcome, error)
}

// Handler serves the registration and login endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/register", h.HandleRegisterAdmin)
	r.Post("/student/register", h.HandleRegisterStudent)
	r.Post("/admin/login", h.loginFor(models.ActorAdmin))
	r.Post("/student/login", h.loginFor(models.ActorStudent))
	r.Get("/courses", h.HandleListCourses)
}

func (h *Handler) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.AdminRegistration
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.RegisterAdmin(ctx, req)
	if err != nil {
		h.writeFailure(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRegisterResponse(out))
}

func (h *Handler) HandleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.StudentRegistration
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.RegisterStudent(ctx, req)
	if err != nil {
		h.writeFailure(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRegisterResponse(out))
}

func (h *Handler) loginFor(actor models.Actor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req models.Credentials
		if !h.decode(w, r, &req) {
			return
		}

		out, err := h.service.Login(ctx, actor, req)
		if err != nil {
			h.writeFailure(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toLoginResponse(out))
	}
}

func (h *Handler) HandleListCourses(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, CoursesResponse{Courses: models.Courses})
}

type request interface {
	Normalize()
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req request) bool {
	ctx := r.Context()
	if err := httputil.DecodeJSON(r, req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "request validation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	return true
}

// writeFailure always includes the failure message; it is the text the
// user sees, even for internal codes.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	f, ok := classify.As(err)
	if !ok {
		h.logger.ErrorContext(ctx, "unclassified workflow error",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteErrorWith(w, f.DomainError(), map[string]string{
		"kind":              string(f.Kind),
		"error_description": f.Message,
	})
}
