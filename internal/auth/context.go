package auth

import (
	"context"

	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
)

// StaffContext holds authenticated staff information
type StaffContext struct {
	StaffID     uuid.UUID
	AuthID      string
	DisplayName string
	Email       string
	Role        domain.StaffRole
}

type contextKey string

const staffContextKey contextKey = "staffContext"

// WithStaffContext adds staff context to the context
func WithStaffContext(ctx context.Context, staff *StaffContext) context.Context {
	return context.WithValue(ctx, staffContextKey, staff)
}

// FromContext extracts staff context from the context
func FromContext(ctx context.Context) (*StaffContext, bool) {
	staff, ok := ctx.Value(staffContextKey).(*StaffContext)
	return staff, ok
}

// MustFromContext extracts staff context or panics
func MustFromContext(ctx context.Context) *StaffContext {
	staff, ok := FromContext(ctx)
	if !ok {
		panic("staff context not found in context")
	}
	return staff
}

// IsAdmin checks if the staff member is an admin
func (s *StaffContext) IsAdmin() bool {
	return s.Role == domain.RoleAdmin
}

// Can checks if the staff member's role grants a capability
func (s *StaffContext) Can(capability domain.Capability) bool {
	return domain.RoleHasCapability(s.Role, capability)
}
