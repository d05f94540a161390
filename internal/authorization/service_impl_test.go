package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupAuthorization(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	return NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc := setupAuthorization(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleAdmin, ObjectUser, ActionManage, true},
		{RoleAdmin, ObjectCache, ActionManage, true},
		{RoleManager, ObjectSettings, ActionManage, true},
		{RoleManager, ObjectUser, ActionManage, false},
		{RoleManager, ObjectUser, ActionView, false},
		{RoleManager, ObjectOrder, ActionManage, true},
		{RoleEmployee, ObjectOrder, ActionManage, true},
		{RoleEmployee, ObjectSettings, ActionView, true},
		{RoleEmployee, ObjectSettings, ActionManage, false},
		{RoleViewer, ObjectOrder, ActionView, true},
		{RoleViewer, ObjectOrder, ActionManage, false},
		{RoleViewer, ObjectActivityLog, ActionView, false},
	}

	for _, tc := range cases {
		err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s %s", tc.role, tc.object, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s %s", tc.role, tc.object, tc.action)
		}
	}
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc := setupAuthorization(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "owner", ObjectOrder, ActionView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleAdmin, "", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleAdmin, ObjectOrder, ""), ErrInvalidAction)
}

func TestNewEnforcerIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	_, err = NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 11)
}

func TestPermissionsIncludeInherited(t *testing.T) {
	svc := setupAuthorization(t)
	perms, err := svc.Permissions(RoleEmployee)
	require.NoError(t, err)
	assert.Contains(t, perms, []string{ObjectOrder, ActionManage})
	assert.Contains(t, perms, []string{ObjectSettings, ActionView})
}
