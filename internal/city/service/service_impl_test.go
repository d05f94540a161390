package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shipdesk/internal/city/domain"
	"github.com/smallbiznis/shipdesk/internal/city/repository"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupCityService(t *testing.T, refs testutil.Refs) (*Service, *testutil.Audit, *clock.FakeClock) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.City{})
	audit := &testutil.Audit{}
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
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

func seedCities(t *testing.T, svc *Service, names ...string) []domain.City {
	t.Helper()
	out := make([]domain.City, 0, len(names))
	for _, name := range names {
		c, err := svc.Create(context.Background(), domain.CreateCityRequest{Name: name, DeliveryFee: decimal.NewFromInt(3)})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestCreateValidates(t *testing.T) {
	svc, audit, _ := setupCityService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCityRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCityRequest{Name: "Rabat", DeliveryFee: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidDeliveryFee)

	city, err := svc.Create(ctx, domain.CreateCityRequest{Name: " Rabat ", Region: "North", DeliveryFee: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Equal(t, "Rabat", city.Name)
	assert.True(t, city.IsActive)
	assert.Equal(t, []string{"city.created"}, audit.Actions())

	_, err = svc.Create(ctx, domain.CreateCityRequest{Name: "Rabat"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestListFiltersAndSorts(t *testing.T) {
	svc, _, _ := setupCityService(t, nil)
	ctx := context.Background()

	seedCities(t, svc, "Tangier", "Agadir", "Casablanca")
	inactive := false
	_, err := svc.Create(ctx, domain.CreateCityRequest{Name: "Fes", IsActive: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListCityRequest{})
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Agadir", "Casablanca", "Fes", "Tangier"}, names)

	active, err := svc.List(ctx, domain.ListCityRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 3)

	found, err := svc.List(ctx, domain.ListCityRequest{Search: "CASA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Casablanca", found[0].Name)
}

func TestPatchWritesOnlyGivenFields(t *testing.T) {
	svc, audit, clk := setupCityService(t, nil)
	ctx := context.Background()

	city := seedCities(t, svc, "Meknes")[0]
	clk.Advance(time.Hour)

	patched, err := svc.Patch(ctx, city.ID.String(), map[string]any{"deliveryFee": "7.25"})
	require.NoError(t, err)
	assert.Equal(t, "Meknes", patched.Name)
	assert.True(t, patched.DeliveryFee.Equal(decimal.RequireFromString("7.25")))

	got, err := svc.Get(ctx, city.ID.String())
	require.NoError(t, err)
	assert.True(t, got.DeliveryFee.Equal(decimal.RequireFromString("7.25")))
	assert.True(t, got.UpdatedAt.After(city.UpdatedAt))

	_, err = svc.Patch(ctx, city.ID.String(), map[string]any{"createdAt": "2020-01-01T00:00:00Z"})
	assert.ErrorIs(t, err, fieldmap.ErrReadOnlyField)

	_, err = svc.Patch(ctx, city.ID.String(), map[string]any{"name": ""})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	assert.Equal(t, []string{"city.created", "city.patched"}, audit.Actions())
}

func TestUpdateReplacesFields(t *testing.T) {
	svc, _, _ := setupCityService(t, nil)
	ctx := context.Background()

	city := seedCities(t, svc, "Oujda")[0]
	updated, err := svc.Update(ctx, city.ID.String(), domain.UpdateCityRequest{
		Name:        "Oujda Centre",
		Region:      "East",
		DeliveryFee: decimal.NewFromInt(9),
		IsActive:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Oujda Centre", updated.Name)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, "123", domain.UpdateCityRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	refs := testutil.Refs{orderdomain.RefCity: 2}
	svc, _, _ := setupCityService(t, refs)
	ctx := context.Background()

	city := seedCities(t, svc, "Safi")[0]
	assert.ErrorIs(t, svc.Delete(ctx, city.ID.String()), domain.ErrInUse)

	delete(refs, orderdomain.RefCity)
	require.NoError(t, svc.Delete(ctx, city.ID.String()))

	_, err := svc.Get(ctx, city.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByNameToleratesTypos(t *testing.T) {
	svc, _, _ := setupCityService(t, nil)
	ctx := context.Background()

	seedCities(t, svc, "Casablanca", "Marrakech", "Rabat", "Sale")

	tests := []struct {
		input string
		want  string
		err   error
	}{
		{input: "casablanca", want: "Casablanca"},
		{input: "  MARRAKECH ", want: "Marrakech"},
		{input: "Marakech", want: "Marrakech"},
		{input: "Casablanka", want: "Casablanca"},
		{input: "Rabbat", want: "Rabat"},
		{input: "Tetouan", err: domain.ErrNotFound},
		{input: "", err: domain.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := svc.FindByName(ctx, tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatchCityRejectsTies(t *testing.T) {
	cities := []domain.City{{Name: "Sale"}, {Name: "Safe"}}
	_, err := matchCity(cities, "sabe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
