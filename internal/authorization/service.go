package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opencare/tabel/internal/actor"
)

const (
	ObjectResident = "resident"
	ObjectTabel    = "tabel"
	ObjectCatalog  = "catalog"
	ObjectBilling  = "billing"
)

const (
	ActionView = "view"
	ActionEdit = "edit"
	ActionLock = "lock"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrForbidden    = errors.New("forbidden")
)

// Service is the single capability check every operation entry point goes
// through: a role gate backed by the policy store plus a department-scope
// gate for resident-targeted calls.
type Service interface {
	Authorize(ctx context.Context, a actor.Actor, object string, action string) error
	AuthorizeResident(ctx context.Context, a actor.Actor, residentDepartmentID snowflake.ID) error
}
