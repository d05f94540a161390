package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/client/repository"
	"github.com/smallbiznis/shipdesk/internal/clock"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupClientService(t *testing.T, refs testutil.Refs) (*Service, *testutil.Audit, *clock.FakeClock) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.Client{})
	audit := &testutil.Audit{}
	clk := clock.NewFakeClock(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC))
	if refs == nil {
		refs = testutil.Refs{}
	}
	svc := New(Params{
		Log:   zaptest.NewLogger(t),
		GenID: testutil.Node(t),
		Clock: clk,
		Repo:  repository.Provide(db),
		Audit: audit,
		Refs:  refs,
	}).(*Service)
	return svc, audit, clk
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+212612345678", domain.NormalizePhone(" +212 6-12 34 56 78 "))
	assert.Equal(t, "0612345678", domain.NormalizePhone("06.12.34.56.78"))
	assert.Equal(t, "12", domain.NormalizePhone("1+2"))
}

func TestCreateClientValidates(t *testing.T) {
	svc, _, _ := setupClientService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.ClientInput{Phone: "0612345678"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.ClientInput{Name: "Yasmine", Phone: "12"})
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	_, err = svc.Create(ctx, domain.ClientInput{Name: "Yasmine", Phone: "0612345678", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	client, err := svc.Create(ctx, domain.ClientInput{Name: "Yasmine", Phone: "06 12 34 56 78"})
	require.NoError(t, err)
	assert.Equal(t, "0612345678", client.Phone)

	_, err = svc.Create(ctx, domain.ClientInput{Name: "Other", Phone: "0612345678"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePhone)
}

func TestUpsertByPhone(t *testing.T) {
	svc, audit, _ := setupClientService(t, nil)
	ctx := context.Background()

	first, created, err := svc.UpsertByPhone(ctx, domain.ClientInput{Name: "Omar", Phone: "0700000001", City: "Rabat"})
	require.NoError(t, err)
	assert.True(t, created)

	same, created, err := svc.UpsertByPhone(ctx, domain.ClientInput{Name: "Omar", Phone: "07 00 00 00 01"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, same.ID)
	assert.Equal(t, "Rabat", same.City)

	moved, created, err := svc.UpsertByPhone(ctx, domain.ClientInput{Phone: "0700000001", City: "Sale", Address: "5 Av. Hassan II"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Omar", moved.Name)
	assert.Equal(t, "Sale", moved.City)

	assert.Equal(t, []string{"client.created", "client.updated"}, audit.Actions())
}

func TestListClientsPaginates(t *testing.T) {
	svc, _, clk := setupClientService(t, nil)
	ctx := context.Background()

	for _, phone := range []string{"0600000001", "0600000002", "0600000003"} {
		_, err := svc.Create(ctx, domain.ClientInput{Name: "Client " + phone[len(phone)-1:], Phone: phone})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	page, err := svc.List(ctx, domain.ListClientRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page.Clients, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "Client 3", page.Clients[0].Name)

	next, err := svc.List(ctx, domain.ListClientRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, next.Clients, 1)
	assert.False(t, next.HasMore)
	assert.Equal(t, "Client 1", next.Clients[0].Name)

	found, err := svc.List(ctx, domain.ListClientRequest{Search: "000002"})
	require.NoError(t, err)
	require.Len(t, found.Clients, 1)

	_, err = svc.List(ctx, domain.ListClientRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestDeleteClientWithOrders(t *testing.T) {
	refs := testutil.Refs{orderdomain.RefClient: 1}
	svc, _, _ := setupClientService(t, refs)
	ctx := context.Background()

	client, err := svc.Create(ctx, domain.ClientInput{Name: "Nadia", Phone: "0611111111"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, client.ID.String()), domain.ErrInUse)
	refs[orderdomain.RefClient] = 0
	require.NoError(t, svc.Delete(ctx, client.ID.String()))
	_, err = svc.FindByPhone(ctx, "0611111111")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
