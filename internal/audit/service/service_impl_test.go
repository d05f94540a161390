package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/audit/repository"
	"github.com/smallbiznis/shipdesk/internal/clock"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE activity_logs (
		id INTEGER PRIMARY KEY,
		actor_id TEXT,
		actor_name TEXT NOT NULL,
		actor_role TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		request_id TEXT,
		created_at DATETIME NOT NULL
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, db, clk
}

func TestRecordResolvesContext(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	ctx := obscontext.WithActor(context.Background(), obscontext.Actor{ID: "11", Username: "amina", Role: "admin"})
	ctx = obscontext.WithClient(ctx, obscontext.Client{IPAddress: "10.1.1.1", UserAgent: "test-agent"})
	ctx = obscontext.WithRequestID(ctx, "req-9")

	require.NoError(t, svc.Record(ctx, "user.created", "user", "42", map[string]any{
		"username": "karim",
		"password": "s3cret-value",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListActivityLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.ActivityLogs, 1)

	entry := resp.ActivityLogs[0]
	assert.Equal(t, "amina", entry.ActorName)
	assert.Equal(t, "admin", entry.ActorRole)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "42", *entry.TargetID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.1.1.1", *entry.IPAddress)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-9", *entry.RequestID)
	assert.Equal(t, "karim", entry.Metadata["username"])
	assert.NotEqual(t, "s3cret-value", entry.Metadata["password"])
}

func TestRecordWithoutActorUsesSystem(t *testing.T) {
	svc, _, _ := setupAuditService(t)

	require.NoError(t, svc.Record(context.Background(), "demo.generated", "orders", "", nil))
	resp, err := svc.List(context.Background(), auditdomain.ListActivityLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.ActivityLogs, 1)
	assert.Equal(t, auditdomain.ActorSystem, resp.ActivityLogs[0].ActorName)
	assert.Nil(t, resp.ActivityLogs[0].TargetID)

	assert.ErrorIs(t, svc.Record(context.Background(), " ", "orders", "", nil), auditdomain.ErrInvalidAction)
}

func TestListPaginatesAndFilters(t *testing.T) {
	svc, _, clk := setupAuditService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		action := "city.created"
		if i%2 == 1 {
			action = "city.deleted"
		}
		require.NoError(t, svc.Record(ctx, action, "city", "", nil))
		clk.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListActivityLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.ActivityLogs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.ActivityLogs[0].CreatedAt.After(first.ActivityLogs[1].CreatedAt))

	second, err := svc.List(ctx, auditdomain.ListActivityLogRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, second.ActivityLogs, 2)
	assert.True(t, second.ActivityLogs[0].CreatedAt.Before(first.ActivityLogs[1].CreatedAt))

	deleted, err := svc.List(ctx, auditdomain.ListActivityLogRequest{Action: "city.deleted"})
	require.NoError(t, err)
	assert.Len(t, deleted.ActivityLogs, 2)

	group, err := svc.List(ctx, auditdomain.ListActivityLogRequest{Action: "city.*"})
	require.NoError(t, err)
	assert.Len(t, group.ActivityLogs, 5)

	_, err = svc.List(ctx, auditdomain.ListActivityLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := clk.Now()
	end := start.Add(-time.Hour)
	_, err = svc.List(ctx, auditdomain.ListActivityLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestClearLeavesMarker(t *testing.T) {
	svc, _, _ := setupAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "store.created", "store", "1", nil))
	require.NoError(t, svc.Record(ctx, "store.updated", "store", "1", nil))

	removed, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	resp, err := svc.List(ctx, auditdomain.ListActivityLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.ActivityLogs, 1)
	assert.Equal(t, ActionCleared, resp.ActivityLogs[0].Action)
	assert.Equal(t, "2", resp.ActivityLogs[0].Metadata["removed"])
}
