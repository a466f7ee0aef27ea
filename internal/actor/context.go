package actor

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Role names supplied by the upstream identity facility.
const (
	RoleAdmin      = "admin"
	RoleHR         = "hr"
	RoleSpecialist = "specialist"
	RoleMedic      = "medic"
)

// Actor is the authenticated caller forwarded by the identity proxy.
// DepartmentID is zero for callers without a department assignment.
type Actor struct {
	ID           snowflake.ID
	Role         string
	DepartmentID snowflake.ID
}

// IsAdminOrHR reports whether the caller may operate across all departments.
func (a Actor) IsAdminOrHR() bool {
	return a.Role == RoleAdmin || a.Role == RoleHR
}

type actorContextKey struct{}

// WithActor stores the caller identity in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// FromContext returns the caller identity, if set.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok || a.ID == 0 {
		return Actor{}, false
	}
	return a, true
}
