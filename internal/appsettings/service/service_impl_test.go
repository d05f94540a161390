package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	"github.com/smallbiznis/shipdesk/internal/appsettings/repository"
	"github.com/smallbiznis/shipdesk/internal/cache"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	cityrepository "github.com/smallbiznis/shipdesk/internal/city/repository"
	cityservice "github.com/smallbiznis/shipdesk/internal/city/service"
	"github.com/smallbiznis/shipdesk/internal/clock"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	companyrepository "github.com/smallbiznis/shipdesk/internal/company/repository"
	companyservice "github.com/smallbiznis/shipdesk/internal/company/service"
	"github.com/smallbiznis/shipdesk/internal/config"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc      *Service
	cities   citydomain.Service
	company  companydomain.Service
	defaults *config.SettingsHolder
	audit    *testutil.Audit
}

func setupAppSettings(t *testing.T) fixture {
	t.Helper()

	db := testutil.OpenDB(t, &domain.AppSettings{}, &citydomain.City{}, &companydomain.CompanyInfo{})
	log := zaptest.NewLogger(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	audit := &testutil.Audit{}
	settingsCache := cache.NewLocalSettingsCache(time.Minute, log)

	defaults := config.DefaultSettings()
	defaults.DefaultCurrency = "MAD"
	defaults.ShippingZones = []config.ZoneDefault{
		{Name: "Casablanca metro", Cities: []string{"Casablanca", "Mohammedia"}, Fee: "20", EstimatedDays: 1},
	}
	holder := config.NewStaticSettingsHolder(defaults)

	cities := cityservice.New(cityservice.Params{
		Log: log, GenID: node, Clock: clk, Repo: cityrepository.Provide(db), Audit: audit, Refs: testutil.Refs{},
	})
	company := companyservice.New(companyservice.Params{
		Log: log, GenID: node, Clock: clk, Repo: companyrepository.Provide(db), Audit: audit, Cache: settingsCache,
	})
	svc := New(Params{
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(db),
		Defaults: holder,
		Cities:   cities,
		Company:  company,
		Audit:    audit,
		Cache:    settingsCache,
	}).(*Service)
	return fixture{svc: svc, cities: cities, company: company, defaults: holder, audit: audit}
}

func TestGetFallsBackToDefaults(t *testing.T) {
	f := setupAppSettings(t)
	ctx := context.Background()

	settings, err := f.svc.Get(ctx)
	require.NoError(t, err)
	assert.Zero(t, settings.ID)
	assert.Equal(t, "MAD", settings.DefaultCurrency)
	require.Len(t, settings.ShippingZones, 1)
	assert.True(t, settings.ShippingZones[0].Fee.Equal(decimal.NewFromInt(20)))

	updated := config.DefaultSettings()
	updated.DefaultCurrency = "EUR"
	f.defaults.Set(updated)

	settings, err = f.svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", settings.DefaultCurrency)
}

func TestSaveAndPatch(t *testing.T) {
	f := setupAppSettings(t)
	ctx := context.Background()

	_, err := f.svc.Save(ctx, domain.SaveAppSettingsRequest{DefaultCurrency: "EURO", DefaultLanguage: "fr"})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	_, err = f.svc.Save(ctx, domain.SaveAppSettingsRequest{
		DefaultCurrency:   "mad",
		DefaultLanguage:   "FR",
		WhatsAppTemplates: domain.Templates{"fr": {"lost": "?"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	saved, err := f.svc.Save(ctx, domain.SaveAppSettingsRequest{
		DefaultCurrency:   "mad",
		DefaultLanguage:   "FR",
		OrderNumberPrefix: " CMD- ",
		AutoConfirm:       true,
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "MAD", saved.DefaultCurrency)
	assert.Equal(t, "fr", saved.DefaultLanguage)
	assert.Equal(t, "CMD-", saved.OrderNumberPrefix)

	patched, err := f.svc.Patch(ctx, map[string]any{"autoConfirm": false})
	require.NoError(t, err)
	assert.False(t, patched.AutoConfirm)
	assert.Equal(t, "CMD-", patched.OrderNumberPrefix)

	got, err := f.svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.False(t, got.AutoConfirm)
}

func TestSaveNormalizesTemplateLanguages(t *testing.T) {
	f := setupAppSettings(t)
	ctx := context.Background()

	saved, err := f.svc.Save(ctx, domain.SaveAppSettingsRequest{
		DefaultCurrency: "MAD",
		DefaultLanguage: "fr",
		WhatsAppTemplates: domain.Templates{
			" FR ": {"new": "Bonjour {clientName}", "shipped": " "},
			"en":   {"shipped": "  "},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Templates{"fr": {"new": "Bonjour {clientName}"}}, saved.WhatsAppTemplates.Data())

	for _, lang := range []string{"FR", "fr", ""} {
		fr, err := f.svc.Templates(ctx, lang)
		require.NoError(t, err, "lang %q", lang)
		assert.Equal(t, "Bonjour {clientName}", fr["new"])
	}

	_, err = f.svc.Save(ctx, domain.SaveAppSettingsRequest{
		DefaultCurrency:   "MAD",
		DefaultLanguage:   "fr",
		WhatsAppTemplates: domain.Templates{"FR": {"new": "a"}, "fr": {"new": "b"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLanguage)

	_, err = f.svc.Save(ctx, domain.SaveAppSettingsRequest{
		DefaultCurrency:   "MAD",
		DefaultLanguage:   "fr",
		WhatsAppTemplates: domain.Templates{"  ": {"new": "a"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLanguage)
}

func TestZoneCRUDAndQuote(t *testing.T) {
	f := setupAppSettings(t)
	ctx := context.Background()

	_, err := f.cities.Create(ctx, citydomain.CreateCityRequest{Name: "Agadir", DeliveryFee: decimal.NewFromInt(45)})
	require.NoError(t, err)

	_, err = f.svc.AddZone(ctx, domain.ShippingZone{Name: "casablanca METRO"})
	assert.ErrorIs(t, err, domain.ErrDuplicateZone)
	_, err = f.svc.AddZone(ctx, domain.ShippingZone{Name: "North", Fee: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidZone)

	_, err = f.svc.AddZone(ctx, domain.ShippingZone{Name: "North", Cities: []string{"Tangier", " Tetouan "}, Fee: decimal.NewFromInt(35), EstimatedDays: 2})
	require.NoError(t, err)

	zones, err := f.svc.Zones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, []string{"Tangier", "Tetouan"}, zones[1].Cities)

	quote, err := f.svc.QuoteShipping(ctx, "tetouan")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteSourceZone, quote.Source)
	assert.Equal(t, "North", quote.Zone)
	assert.True(t, quote.Fee.Equal(decimal.NewFromInt(35)))

	quote, err = f.svc.QuoteShipping(ctx, "Agadirr")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteSourceCity, quote.Source)
	assert.Equal(t, "Agadir", quote.City)
	assert.True(t, quote.Fee.Equal(decimal.NewFromInt(45)))

	_, err = f.svc.QuoteShipping(ctx, "Dakhla")
	assert.ErrorIs(t, err, domain.ErrNoShippingRate)

	_, err = f.svc.UpdateZone(ctx, "north", domain.ShippingZone{Name: "North", Cities: []string{"Tangier"}, Fee: decimal.NewFromInt(30)})
	require.NoError(t, err)
	_, err = f.svc.QuoteShipping(ctx, "Tetouan")
	assert.ErrorIs(t, err, domain.ErrNoShippingRate)

	require.NoError(t, f.svc.DeleteZone(ctx, "North"))
	assert.ErrorIs(t, f.svc.DeleteZone(ctx, "North"), domain.ErrZoneNotFound)
	_, err = f.svc.UpdateZone(ctx, "North", domain.ShippingZone{Name: "North"})
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)
}

func TestTemplatesAndRender(t *testing.T) {
	f := setupAppSettings(t)
	ctx := context.Background()

	_, err := f.company.Save(ctx, companydomain.SaveCompanyRequest{Name: "Atlas Shop"})
	require.NoError(t, err)

	_, err = f.svc.SetTemplates(ctx, "ar", map[string]string{"bogus": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	saved, err := f.svc.SetTemplates(ctx, "AR", map[string]string{
		"shipped":   "مرحبا {clientName}، تم شحن طلبك {orderNumber}",
		"delivered": "  ",
	})
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	ar, err := f.svc.Templates(ctx, "ar")
	require.NoError(t, err)
	assert.Contains(t, ar, "shipped")

	_, err = f.svc.Templates(ctx, "de")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	order := orderdomain.Order{
		OrderNumber:    "ORD-7K2",
		ClientName:     "Salma",
		Status:         orderdomain.StatusDelivered,
		Total:          decimal.RequireFromString("149.5"),
		CurrencyCode:   "MAD",
		TrackingNumber: "TRK1",
	}
	text, err := f.svc.RenderWhatsApp(ctx, order, "ar")
	require.NoError(t, err)
	assert.Equal(t, "Hello Salma, your order ORD-7K2 was delivered. Thank you for choosing Atlas Shop!", text)

	order.Status = orderdomain.StatusShipped
	text, err = f.svc.RenderWhatsApp(ctx, order, "ar")
	require.NoError(t, err)
	assert.Equal(t, "مرحبا Salma، تم شحن طلبك ORD-7K2", text)

	order.Status = orderdomain.StatusReturned
	_, err = f.svc.RenderWhatsApp(ctx, order, "")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestRenderPlaceholders(t *testing.T) {
	order := orderdomain.Order{
		OrderNumber:    "ORD-1",
		ClientName:     "Ali",
		Status:         orderdomain.StatusOutForDelivery,
		Total:          decimal.NewFromInt(80),
		CurrencyCode:   "MAD",
		TrackingNumber: "X9",
	}
	got := Render("{clientName}|{orderNumber}|{status}|{total}|{trackingNumber}|{companyName}|{unknown}", order, "Atlas")
	assert.Equal(t, "Ali|ORD-1|out for delivery|80.00 MAD|X9|Atlas|{unknown}", got)
}
