package service

import (
	"context"
	"testing"
	"time"

	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	cityrepository "github.com/smallbiznis/shipdesk/internal/city/repository"
	cityservice "github.com/smallbiznis/shipdesk/internal/city/service"
	"github.com/smallbiznis/shipdesk/internal/clock"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/store/domain"
	"github.com/smallbiznis/shipdesk/internal/store/repository"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupStoreService(t *testing.T, refs testutil.Refs) (*Service, citydomain.Service) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.Store{}, &citydomain.City{})
	if refs == nil {
		refs = testutil.Refs{}
	}
	log := zaptest.NewLogger(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	audit := &testutil.Audit{}

	cities := cityservice.New(cityservice.Params{
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  cityrepository.Provide(db),
		Audit: audit,
		Refs:  refs,
	})
	svc := New(Params{
		Log:    log,
		GenID:  node,
		Clock:  clk,
		Repo:   repository.Provide(db),
		Cities: cities,
		Audit:  audit,
		Refs:   refs,
	}).(*Service)
	return svc, cities
}

func TestCreateStoreSlugAndCity(t *testing.T) {
	svc, cities := setupStoreService(t, nil)
	ctx := context.Background()

	city, err := cities.Create(ctx, citydomain.CreateCityRequest{Name: "Tangier"})
	require.NoError(t, err)

	store, err := svc.Create(ctx, domain.CreateStoreRequest{Name: "Boutique Médina Nord", CityID: city.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "boutique-medina-nord", store.Code)
	require.NotNil(t, store.CityID)
	assert.Equal(t, city.ID, *store.CityID)

	_, err = svc.Create(ctx, domain.CreateStoreRequest{Name: "Other", Code: "Boutique Medina Nord"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)

	_, err = svc.Create(ctx, domain.CreateStoreRequest{Name: "Ghost", CityID: "99"})
	assert.ErrorIs(t, err, domain.ErrInvalidCity)
}

func TestPatchStoreKeepsOtherFields(t *testing.T) {
	svc, _ := setupStoreService(t, nil)
	ctx := context.Background()

	store, err := svc.Create(ctx, domain.CreateStoreRequest{Name: "Main", Phone: "0600000000"})
	require.NoError(t, err)

	patched, err := svc.Patch(ctx, store.ID.String(), map[string]any{"address": "12 Rue Atlas"})
	require.NoError(t, err)
	assert.Equal(t, "12 Rue Atlas", patched.Address)

	got, err := svc.Get(ctx, store.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "0600000000", got.Phone)
	assert.Equal(t, "12 Rue Atlas", got.Address)
	assert.Equal(t, "main", got.Code)
}

func TestDeleteStoreReferenced(t *testing.T) {
	refs := testutil.Refs{orderdomain.RefStore: 1}
	svc, _ := setupStoreService(t, refs)
	ctx := context.Background()

	store, err := svc.Create(ctx, domain.CreateStoreRequest{Name: "Main"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, store.ID.String()), domain.ErrInUse)
	refs[orderdomain.RefStore] = 0
	require.NoError(t, svc.Delete(ctx, store.ID.String()))

	list, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}
