package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/smallbiznis/shipdesk/internal/currency/repository"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupCurrencyService(t *testing.T, refs testutil.Refs) (*Service, *testutil.Audit) {
	t.Helper()

	db := testutil.OpenDB(t, &domain.Currency{})
	audit := &testutil.Audit{}
	if refs == nil {
		refs = testutil.Refs{}
	}
	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		Clock: clock.NewFakeClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(db),
		Audit: audit,
		Refs:  refs,
	}).(*Service)
	return svc, audit
}

func countDefaults(t *testing.T, svc *Service) int {
	t.Helper()
	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	n := 0
	for _, c := range all {
		if c.IsDefault {
			n++
		}
	}
	return n
}

func TestFirstCurrencyBecomesDefault(t *testing.T) {
	svc, _ := setupCurrencyService(t, nil)
	ctx := context.Background()

	mad, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "mad", Name: "Dirham", Symbol: "DH", ExchangeRate: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, "MAD", mad.Code)
	assert.True(t, mad.IsDefault)
	assert.True(t, mad.ExchangeRate.Equal(decimal.NewFromInt(1)))

	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro", ExchangeRate: decimal.RequireFromString("0.1")})
	require.NoError(t, err)
	assert.Equal(t, 1, countDefaults(t, svc))

	def, err := svc.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MAD", def.Code)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := setupCurrencyService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EURO", Name: "Euro"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "E1R", Name: "Euro"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro", ExchangeRate: decimal.NewFromInt(-2)})
	assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate)

	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "eur", Name: "Euro again"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestSetDefaultRebasesRates(t *testing.T) {
	svc, audit := setupCurrencyService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "USD", Name: "Dollar"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "MAD", Name: "Dirham", ExchangeRate: decimal.NewFromInt(10)})
	require.NoError(t, err)

	mad, err := svc.SetDefault(ctx, "mad")
	require.NoError(t, err)
	assert.True(t, mad.IsDefault)
	assert.True(t, mad.ExchangeRate.Equal(decimal.NewFromInt(1)))

	usd, err := svc.Get(ctx, "USD")
	require.NoError(t, err)
	assert.False(t, usd.IsDefault)
	assert.True(t, usd.ExchangeRate.Equal(decimal.RequireFromString("0.1")), usd.ExchangeRate.String())
	assert.Equal(t, 1, countDefaults(t, svc))
	assert.Contains(t, audit.Actions(), "currency.default_changed")

	inactive := false
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "GBP", Name: "Pound", IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.SetDefault(ctx, "GBP")
	assert.ErrorIs(t, err, domain.ErrDefaultInactive)
}

func TestConvert(t *testing.T) {
	svc, _ := setupCurrencyService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "MAD", Name: "Dirham"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro", ExchangeRate: decimal.RequireFromString("0.092")})
	require.NoError(t, err)

	resp, err := svc.Convert(ctx, domain.ConvertRequest{Amount: decimal.NewFromInt(250), From: "MAD", To: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "23", resp.Result.String())

	resp, err = svc.Convert(ctx, domain.ConvertRequest{Amount: decimal.NewFromInt(23), From: "EUR", To: "MAD"})
	require.NoError(t, err)
	assert.Equal(t, "250", resp.Result.String())

	_, err = svc.Convert(ctx, domain.ConvertRequest{Amount: decimal.NewFromInt(1), From: "MAD", To: "JPY"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDefaultGuards(t *testing.T) {
	svc, _ := setupCurrencyService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "MAD", Name: "Dirham"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro", ExchangeRate: decimal.RequireFromString("0.09")})
	require.NoError(t, err)

	_, err = svc.Patch(ctx, "MAD", map[string]any{"isActive": false})
	assert.ErrorIs(t, err, domain.ErrDefaultInactive)

	_, err = svc.Patch(ctx, "MAD", map[string]any{"isDefault": false})
	assert.ErrorIs(t, err, fieldmap.ErrReadOnlyField)

	assert.ErrorIs(t, svc.Delete(ctx, "MAD"), domain.ErrDeleteDefault)
	require.NoError(t, svc.Delete(ctx, "EUR"))
	require.NoError(t, svc.Delete(ctx, "MAD"))
}

func TestPatchAndDeleteReferenced(t *testing.T) {
	refs := testutil.Refs{orderdomain.RefCurrency: 1}
	svc, _ := setupCurrencyService(t, refs)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCurrencyRequest{Code: "MAD", Name: "Dirham"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCurrencyRequest{Code: "EUR", Name: "Euro", ExchangeRate: decimal.RequireFromString("0.09")})
	require.NoError(t, err)

	eur, err := svc.Patch(ctx, "eur", map[string]any{"symbol": "€"})
	require.NoError(t, err)
	assert.Equal(t, "€", eur.Symbol)
	assert.Equal(t, "Euro", eur.Name)

	assert.ErrorIs(t, svc.Delete(ctx, "EUR"), domain.ErrInUse)
}
