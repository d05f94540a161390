package demodata

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	appsettingsmock "github.com/smallbiznis/shipdesk/internal/appsettings/domain/mock"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	cityrepository "github.com/smallbiznis/shipdesk/internal/city/repository"
	cityservice "github.com/smallbiznis/shipdesk/internal/city/service"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	clientrepository "github.com/smallbiznis/shipdesk/internal/client/repository"
	"github.com/smallbiznis/shipdesk/internal/clock"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	currencyrepository "github.com/smallbiznis/shipdesk/internal/currency/repository"
	currencyservice "github.com/smallbiznis/shipdesk/internal/currency/service"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	orderrepository "github.com/smallbiznis/shipdesk/internal/order/repository"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	paymentmethodrepository "github.com/smallbiznis/shipdesk/internal/paymentmethod/repository"
	paymentmethodservice "github.com/smallbiznis/shipdesk/internal/paymentmethod/service"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	shippingcompanyrepository "github.com/smallbiznis/shipdesk/internal/shippingcompany/repository"
	shippingcompanyservice "github.com/smallbiznis/shipdesk/internal/shippingcompany/service"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	storerepository "github.com/smallbiznis/shipdesk/internal/store/repository"
	storeservice "github.com/smallbiznis/shipdesk/internal/store/service"
	"github.com/smallbiznis/shipdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func sampleCatalog() Catalog {
	return Catalog{
		Cities: []citydomain.City{
			{ID: 11, Name: "Casablanca", DeliveryFee: decimal.NewFromInt(25), IsActive: true},
			{ID: 12, Name: "Rabat", DeliveryFee: decimal.NewFromInt(30), IsActive: true},
		},
		Stores:         []storedomain.Store{{ID: 21, Name: "Main", Code: "main"}},
		Shippers:       []shippingcompanydomain.ShippingCompany{{ID: 31, Name: "Amana", Code: "amana"}},
		PaymentMethods: []paymentmethoddomain.PaymentMethod{{ID: 41, Name: "COD", Code: "cod", FeePercent: decimal.NewFromInt(2)}},
		Currency:       "MAD",
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

	a := Generate(sampleCatalog(), 40, 7, now)
	b := Generate(sampleCatalog(), 40, 7, now)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different batches (-a +b):\n%s", diff)
	}

	c := Generate(sampleCatalog(), 40, 8, now)
	assert.NotEqual(t, a.Clients[0].Phone+a.Clients[1].Phone, c.Clients[0].Phone+c.Clients[1].Phone)
	assert.Empty(t, Generate(sampleCatalog(), 0, 7, now).Orders)
}

func TestGeneratedHistoryFollowsProgression(t *testing.T) {
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	batch := Generate(sampleCatalog(), 300, 42, now)
	require.Len(t, batch.Orders, 300)
	require.Len(t, batch.OrderClient, 300)

	seen := map[orderdomain.Status]bool{}
	for _, o := range batch.Orders {
		require.NotEmpty(t, o.StatusHistory)
		assert.True(t, o.IsDemo)
		assert.Equal(t, orderdomain.StatusNew, o.StatusHistory[0].Status)
		assert.Equal(t, o.CreatedAt, o.StatusHistory[0].At)
		assert.Equal(t, o.Status, o.StatusHistory[len(o.StatusHistory)-1].Status)
		assert.True(t, o.CreatedAt.Before(now))

		for i := 1; i < len(o.StatusHistory); i++ {
			prev, next := o.StatusHistory[i-1], o.StatusHistory[i]
			assert.True(t, prev.Status.CanTransition(next.Status), "%s -> %s", prev.Status, next.Status)
			assert.True(t, next.At.After(prev.At))
		}

		expected := o.ItemsTotal.Add(o.ShippingFee).Add(sampleCatalog().PaymentMethods[0].Fee(o.ItemsTotal))
		assert.True(t, expected.Equal(o.Total), "total %s != %s", o.Total, expected)
		seen[o.Status] = true
	}
	assert.True(t, seen[orderdomain.StatusDelivered])
	assert.True(t, seen[orderdomain.StatusCancelled])
}

type fixture struct {
	svc *Service
	db  *gorm.DB
}

func setupDemoService(t *testing.T) fixture {
	t.Helper()

	db := testutil.OpenDB(t,
		&orderdomain.Order{},
		&clientdomain.Client{},
		&citydomain.City{},
		&storedomain.Store{},
		&shippingcompanydomain.ShippingCompany{},
		&paymentmethoddomain.PaymentMethod{},
		&currencydomain.Currency{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	audit := &testutil.Audit{}
	orders := orderrepository.Provide()
	refs := orderrepository.NewReferenceCounter(db, orders)

	settings := appsettingsmock.NewMockService(gomock.NewController(t))
	settings.EXPECT().Get(gomock.Any()).Return(appsettingsdomain.AppSettings{
		DefaultCurrency: "MAD", OrderNumberPrefix: "DEMO-",
	}, nil).AnyTimes()

	cities := cityservice.New(cityservice.Params{Log: log, GenID: node, Clock: clk, Repo: cityrepository.Provide(db), Audit: audit, Refs: refs})
	svc := New(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Orders:  orders,
		Clients: clientrepository.Provide(db),
		Cities:  cities,
		Stores: storeservice.New(storeservice.Params{
			Log: log, GenID: node, Clock: clk, Repo: storerepository.Provide(db), Cities: cities, Audit: audit, Refs: refs,
		}),
		ShippingCompanies: shippingcompanyservice.New(shippingcompanyservice.Params{
			Log: log, GenID: node, Clock: clk, Repo: shippingcompanyrepository.Provide(db), Audit: audit, Refs: refs,
		}),
		PaymentMethods: paymentmethodservice.New(paymentmethodservice.Params{
			Log: log, GenID: node, Clock: clk, Repo: paymentmethodrepository.Provide(db), Audit: audit, Refs: refs,
		}),
		Currencies: currencyservice.New(currencyservice.Params{
			DB: db, Log: log, Clock: clk, Repo: currencyrepository.Provide(db), Audit: audit, Refs: refs,
		}),
		Settings: settings,
		Audit:    audit,
	})
	return fixture{svc: svc, db: db}
}

func TestGenerateSeedsCatalogAndPersists(t *testing.T) {
	f := setupDemoService(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidCount)

	result, err := f.svc.Generate(ctx, 25, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Orders)
	assert.Positive(t, result.ClientsCreated)

	var cities, currencies, orders int64
	require.NoError(t, f.db.Model(&citydomain.City{}).Count(&cities).Error)
	require.NoError(t, f.db.Model(&currencydomain.Currency{}).Count(&currencies).Error)
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Where("is_demo = ?", true).Count(&orders).Error)
	assert.EqualValues(t, len(defaultCities), cities)
	assert.EqualValues(t, 1, currencies)
	assert.EqualValues(t, 25, orders)

	var sample orderdomain.Order
	require.NoError(t, f.db.First(&sample).Error)
	assert.Contains(t, sample.OrderNumber, "DEMO-")
	require.NotNil(t, sample.ClientID)
}

func TestPurgeKeepsRealRows(t *testing.T) {
	f := setupDemoService(t)
	ctx := context.Background()

	kept := clientdomain.Client{ID: 1, Name: "Real Client", Phone: "+212700000001", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.db.Create(&kept).Error)

	_, err := f.svc.Generate(ctx, 10, 3)
	require.NoError(t, err)

	purged, err := f.svc.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, purged.Orders)
	assert.Positive(t, purged.Clients)

	var clients, orders int64
	require.NoError(t, f.db.Model(&clientdomain.Client{}).Count(&clients).Error)
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, clients)
	assert.Zero(t, orders)
}
