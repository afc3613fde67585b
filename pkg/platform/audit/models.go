package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// Sinks can route or retain categories differently.
type EventCategory string

const (
	// CategoryCompliance covers account creation: the records a registrar
	// needs to reconstruct who was enrolled and when.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected gates and failed logins.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as successful logins
	// and reconciliation repairs.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from workflow logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the provider identity id; empty when the workflow failed
	// before a credential existed.
	UserID    string `json:"user_id,omitempty"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Email     string `json:"email,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Device    string `json:"device,omitempty"`
}

type AuditEvent string

const (
	// Registration events
	EventAdminRegistered        AuditEvent = "admin_registered"
	EventStudentRegistered      AuditEvent = "student_registered"
	EventRegistrationRejected   AuditEvent = "registration_rejected"
	EventRegistrationIncomplete AuditEvent = "registration_incomplete"

	// Login events
	EventLoginSucceeded   AuditEvent = "login_succeeded"
	EventLoginFailed      AuditEvent = "login_failed"
	EventLockoutTriggered AuditEvent = "auth_lockout_triggered"

	// Maintenance events
	EventProjectionRepaired AuditEvent = "projection_repaired"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAdminRegistered:        CategoryCompliance,
	EventStudentRegistered:      CategoryCompliance,
	EventRegistrationIncomplete: CategoryCompliance,

	EventRegistrationRejected: CategorySecurity,
	EventLoginFailed:          CategorySecurity,
	EventLockoutTriggered:     CategorySecurity,

	EventLoginSucceeded:     CategoryOperations,
	EventProjectionRepaired: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
