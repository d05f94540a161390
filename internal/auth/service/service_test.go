package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/shipdesk/internal/auth/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/password"
	"github.com/smallbiznis/shipdesk/internal/auth/repository"
	"github.com/smallbiznis/shipdesk/internal/auth/token"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*Service, *token.Issuer, *testutil.Audit) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.User{})
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	issuer, err := token.NewIssuer(config.Config{AuthJWTSecret: "unit-secret", AuthTokenTTL: 60}, clk)
	require.NoError(t, err)
	audit := &testutil.Audit{}

	svc := New(Params{
		Log:    zaptest.NewLogger(t),
		GenID:  testutil.Node(t),
		Clock:  clk,
		Repo:   repository.Provide(db),
		Tokens: issuer,
		Audit:  audit,
	}).(*Service)
	return svc, issuer, audit
}

func TestLoginIssuesToken(t *testing.T) {
	svc, issuer, audit := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateUserRequest{
		Username: "Amina", Role: "manager", Password: "correct-horse", Email: "Amina@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "amina", user.Username)
	assert.Equal(t, "amina@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	result, err := svc.Login(ctx, domain.LoginRequest{Username: "amina", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotNil(t, result.User.LastLoginAt)

	claims, err := issuer.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Contains(t, audit.Actions(), "user.login")
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateUserRequest{Username: "alice", Password: "correct-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "nobody", Password: "correct-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Create(ctx, domain.CreateUserRequest{Username: "omar", Password: "long-enough", IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "omar", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateUserRequest{Username: "x", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Username: "bob", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Username: "bob", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Username: "bob", Password: "long-enough", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	bob, err := svc.Create(ctx, domain.CreateUserRequest{Username: "bob", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "employee", bob.Role)

	_, err = svc.Create(ctx, domain.CreateUserRequest{Username: "BOB", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLastActiveAdminIsProtected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin2", "bootstrap-pass")
	require.NoError(t, err)
	assert.False(t, created)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	admin := users[0]

	err = svc.Delete(ctx, admin.ID.String())
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	_, err = svc.Update(ctx, admin.ID.String(), domain.UpdateUserRequest{Role: "viewer", IsActive: true})
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	_, err = svc.Update(ctx, admin.ID.String(), domain.UpdateUserRequest{Role: "admin", IsActive: false})
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	second, err := svc.Create(ctx, domain.CreateUserRequest{Username: "nadia", Role: "admin", Password: "long-enough"})
	require.NoError(t, err)

	demoted, err := svc.Update(ctx, admin.ID.String(), domain.UpdateUserRequest{Role: "viewer", IsActive: true, FullName: "Ex Admin"})
	require.NoError(t, err)
	assert.Equal(t, "viewer", demoted.Role)

	err = svc.Delete(ctx, second.ID.String())
	assert.ErrorIs(t, err, domain.ErrLastAdmin)
	require.NoError(t, svc.Delete(ctx, admin.ID.String()))
}

func TestChangePassword(t *testing.T) {
	svc, _, audit := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateUserRequest{Username: "salma", Password: "first-password"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID.String(), "short"), domain.ErrWeakPassword)
	require.NoError(t, svc.ChangePassword(ctx, user.ID.String(), "second-password"))

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "salma", Password: "first-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Username: "salma", Password: "second-password"})
	require.NoError(t, err)
	assert.Contains(t, audit.Actions(), "user.password_changed")
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateUserRequest{Username: "karim", Password: "correct-horse"})
	require.NoError(t, err)

	weak, err := password.Params{Memory: 8 * 1024, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8}.Hash("correct-horse")
	require.NoError(t, err)
	require.NoError(t, svc.repo.Update(ctx, user.ID, map[string]any{"password_hash": weak}))

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "karim", Password: "correct-horse"})
	require.NoError(t, err)

	stored, err := svc.repo.FindOne(ctx, &domain.User{Username: "karim"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, weak, stored.PasswordHash)
	assert.False(t, password.NeedsRehash(stored.PasswordHash))
	assert.True(t, password.Verify("correct-horse", stored.PasswordHash))
}
