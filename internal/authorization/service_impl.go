package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/opencare/tabel/internal/actor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, a actor.Actor, object string, action string) error {
	if a.ID == 0 || strings.TrimSpace(a.Role) == "" {
		return ErrInvalidActor
	}

	subject := fmt.Sprintf("user:%s", a.ID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(strings.TrimSpace(a.Role)))
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// AuthorizeResident gates resident-scoped calls: admin/HR operate across the
// facility, everyone else only inside their own department.
func (s *ServiceImpl) AuthorizeResident(ctx context.Context, a actor.Actor, residentDepartmentID snowflake.ID) error {
	if a.ID == 0 {
		return ErrInvalidActor
	}
	if a.IsAdminOrHR() {
		return nil
	}
	if a.DepartmentID != 0 && a.DepartmentID == residentDepartmentID {
		return nil
	}
	return ErrForbidden
}

// ensureGrouping keeps exactly one role binding per subject, replacing a
// stale one when the identity proxy reports a different role.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Specialists and medics work the tabel and resident cards of their
		// own department; the department scope itself is enforced separately.
		{"role:specialist", ObjectResident, ActionView},
		{"role:specialist", ObjectResident, ActionEdit},
		{"role:specialist", ObjectTabel, ActionView},
		{"role:specialist", ObjectTabel, ActionEdit},
		{"role:specialist", ObjectTabel, ActionLock},
		{"role:specialist", ObjectCatalog, ActionView},
		{"role:specialist", ObjectBilling, ActionView},

		{"role:medic", ObjectResident, ActionView},
		{"role:medic", ObjectTabel, ActionView},
		{"role:medic", ObjectTabel, ActionEdit},
		{"role:medic", ObjectCatalog, ActionView},

		{"role:hr", ObjectResident, ActionView},
		{"role:hr", ObjectResident, ActionEdit},
		{"role:hr", ObjectTabel, ActionView},
		{"role:hr", ObjectTabel, ActionEdit},
		{"role:hr", ObjectTabel, ActionLock},
		{"role:hr", ObjectCatalog, ActionView},
		{"role:hr", ObjectCatalog, ActionEdit},
		{"role:hr", ObjectBilling, ActionView},

		{"role:admin", ObjectResident, ActionView},
		{"role:admin", ObjectResident, ActionEdit},
		{"role:admin", ObjectTabel, ActionView},
		{"role:admin", ObjectTabel, ActionEdit},
		{"role:admin", ObjectTabel, ActionLock},
		{"role:admin", ObjectCatalog, ActionView},
		{"role:admin", ObjectCatalog, ActionEdit},
		{"role:admin", ObjectBilling, ActionView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
