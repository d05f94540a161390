package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
	RoleViewer   = "viewer"
)

const (
	ObjectSettings    = "settings"
	ObjectUser        = "user"
	ObjectOrder       = "order"
	ObjectClient      = "client"
	ObjectActivityLog = "activity_log"
	ObjectImport      = "import"
	ObjectExport      = "export"
	ObjectDemo        = "demo"
	ObjectCache       = "cache"
)

const (
	ActionView   = "view"
	ActionManage = "manage"
)

// Roles lists valid roles from most to least privileged.
var Roles = []string{RoleAdmin, RoleManager, RoleEmployee, RoleViewer}

func IsValidRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
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
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !IsValidRole(role) {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, role, object, action)
		return ErrForbidden
	}
	return nil
}

// Permissions returns the effective (object, action) pairs of role including inherited ones.
func (s *ServiceImpl) Permissions(role string) ([][]string, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !IsValidRole(role) {
		return nil, ErrInvalidActor
	}
	perms, err := s.enforcer.GetImplicitPermissionsForUser(roleSubject(role))
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(perms))
	for _, p := range perms {
		if len(p) < 3 {
			continue
		}
		out = append(out, []string{p[1], p[2]})
	}
	return out, nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Record(ctx, "authorization.denied", "authorization", object, map[string]any{
		"role":   role,
		"object": object,
		"action": action,
	}); err != nil {
		s.log.Warn("failed to record denied access", zap.Error(err))
	}
}

func roleSubject(role string) string {
	return "role:" + role
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Viewer: read-only
		{"role:viewer", ObjectSettings, ActionView},
		{"role:viewer", ObjectOrder, ActionView},
		{"role:viewer", ObjectClient, ActionView},

		// Employee: day-to-day order handling
		{"role:employee", ObjectOrder, ActionManage},
		{"role:employee", ObjectClient, ActionManage},
		{"role:employee", ObjectExport, ActionView},

		// Manager: every setting except user accounts
		{"role:manager", ObjectSettings, ActionManage},
		{"role:manager", ObjectActivityLog, ActionView},
		{"role:manager", ObjectImport, ActionManage},
		{"role:manager", ObjectDemo, ActionManage},

		{"role:admin", "*", "*"},
	}
	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	inheritance := [][]string{
		{"role:employee", "role:viewer"},
		{"role:manager", "role:employee"},
		{"role:admin", "role:manager"},
	}
	for _, link := range inheritance {
		has, err := enforcer.HasGroupingPolicy(link)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(link); err != nil {
			return err
		}
	}
	return nil
}
