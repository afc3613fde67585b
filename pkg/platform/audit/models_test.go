package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEventCategory(t *testing.T) {
	tests := []struct {
		event    AuditEvent
		expected EventCategory
	}{
		{EventAdminRegistered, CategoryCompliance},
		{EventStudentRegistered, CategoryCompliance},
		{EventRegistrationIncomplete, CategoryCompliance},
		{EventRegistrationRejected, CategorySecurity},
		{EventLoginFailed, CategorySecurity},
		{EventLoginSucceeded, CategoryOperations},
		{AuditEvent("something_else"), CategoryOperations},
	}
	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Category())
		})
	}
}
