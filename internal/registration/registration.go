// Package registration exposes the admin and student registration and login
// workflows.
package registration

import (
	"log/slog"

	"campusid/internal/registration/handler"
	"campusid/internal/registration/reconcile"
	"campusid/internal/registration/service"
)

// Service runs the registration and login workflows.
type Service = service.Service

// Handler wires HTTP endpoints to the workflows.
type Handler = handler.Handler

// Reconciler repairs student projections after partial registrations.
type Reconciler = reconcile.Reconciler

// NewService constructs the workflow service with required dependencies.
func NewService(credentials service.CredentialProvider, profiles service.ProfileStore, opts ...service.Option) (*Service, error) {
	return service.New(credentials, profiles, opts...)
}

// NewHandler constructs the HTTP handler for the registration routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
