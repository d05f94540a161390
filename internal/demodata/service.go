package demodata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	"github.com/smallbiznis/shipdesk/internal/ratelimit"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCount         = errors.New("invalid_demo_count")
	ErrGenerationInProgress = errors.New("demo_generation_in_progress")
)

const generateLockTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB                *gorm.DB
	Log               *zap.Logger
	GenID             *snowflake.Node
	Clock             clock.Clock
	Orders            orderdomain.Repository
	Clients           clientdomain.Repository
	Cities            citydomain.Service
	Stores            storedomain.Service
	ShippingCompanies shippingcompanydomain.Service
	PaymentMethods    paymentmethoddomain.Service
	Currencies        currencydomain.Service
	Settings          appsettingsdomain.Service
	Audit             auditdomain.Service
	Guard             *ratelimit.Guard `optional:"true"`
	Metrics           *metrics.Metrics `optional:"true"`
}

type Service struct {
	db                *gorm.DB
	log               *zap.Logger
	genID             *snowflake.Node
	clock             clock.Clock
	orders            orderdomain.Repository
	clients           clientdomain.Repository
	cities            citydomain.Service
	stores            storedomain.Service
	shippingCompanies shippingcompanydomain.Service
	paymentMethods    paymentmethoddomain.Service
	currencies        currencydomain.Service
	settings          appsettingsdomain.Service
	audit             auditdomain.Service
	guard             *ratelimit.Guard
	metrics           *metrics.Metrics
}

type GenerateResult struct {
	Orders         int `json:"orders"`
	ClientsCreated int `json:"clientsCreated"`
	ClientsReused  int `json:"clientsReused"`
}

type PurgeResult struct {
	Orders  int64 `json:"orders"`
	Clients int64 `json:"clients"`
}

func New(p Params) *Service {
	return &Service{
		db:                p.DB,
		log:               p.Log.Named("demodata.service"),
		genID:             p.GenID,
		clock:             p.Clock,
		orders:            p.Orders,
		clients:           p.Clients,
		cities:            p.Cities,
		stores:            p.Stores,
		shippingCompanies: p.ShippingCompanies,
		paymentMethods:    p.PaymentMethods,
		currencies:        p.Currencies,
		settings:          p.Settings,
		audit:             p.Audit,
		guard:             p.Guard,
		metrics:           p.Metrics,
	}
}

// Catalog loads the active catalog rows, creating a starter set for any
// empty catalog so demo orders always have something to point at.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	var cat Catalog

	cities, err := s.cities.List(ctx, citydomain.ListCityRequest{ActiveOnly: true})
	if err != nil {
		return cat, err
	}
	if len(cities) == 0 {
		for _, c := range defaultCities {
			city, err := s.cities.Create(ctx, citydomain.CreateCityRequest{Name: c.name, Region: c.region, DeliveryFee: decimal.NewFromInt(c.fee)})
			if err != nil {
				return cat, fmt.Errorf("seed city %s: %w", c.name, err)
			}
			cities = append(cities, city)
		}
	}
	cat.Cities = cities

	stores, err := s.stores.List(ctx, true)
	if err != nil {
		return cat, err
	}
	if len(stores) == 0 {
		for _, name := range defaultStores {
			store, err := s.stores.Create(ctx, storedomain.CreateStoreRequest{Name: name})
			if err != nil {
				return cat, fmt.Errorf("seed store %s: %w", name, err)
			}
			stores = append(stores, store)
		}
	}
	cat.Stores = stores

	shippers, err := s.shippingCompanies.List(ctx, true)
	if err != nil {
		return cat, err
	}
	if len(shippers) == 0 {
		for _, sh := range defaultShippers {
			company, err := s.shippingCompanies.Create(ctx, shippingcompanydomain.CreateShippingCompanyRequest{Name: sh.name, TrackingURLTemplate: sh.template})
			if err != nil {
				return cat, fmt.Errorf("seed shipping company %s: %w", sh.name, err)
			}
			shippers = append(shippers, company)
		}
	}
	cat.Shippers = shippers

	methods, err := s.paymentMethods.List(ctx, true)
	if err != nil {
		return cat, err
	}
	if len(methods) == 0 {
		for _, m := range defaultMethods {
			method, err := s.paymentMethods.Create(ctx, paymentmethoddomain.CreatePaymentMethodRequest{Name: m.name, FeePercent: decimal.RequireFromString(m.fee)})
			if err != nil {
				return cat, fmt.Errorf("seed payment method %s: %w", m.name, err)
			}
			methods = append(methods, method)
		}
	}
	cat.PaymentMethods = methods

	currency, err := s.currencies.Default(ctx)
	switch {
	case err == nil:
		cat.Currency = currency.Code
	case errors.Is(err, currencydomain.ErrNotFound):
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return cat, err
		}
		created, err := s.currencies.Create(ctx, currencydomain.CreateCurrencyRequest{
			Code: settings.DefaultCurrency, Name: settings.DefaultCurrency, ExchangeRate: decimal.NewFromInt(1),
		})
		if err != nil {
			return cat, fmt.Errorf("seed currency %s: %w", settings.DefaultCurrency, err)
		}
		cat.Currency = created.Code
	default:
		return cat, err
	}
	return cat, nil
}

// Generate fabricates n demo orders and persists them in one transaction. A zero
// seed is drawn from the clock.
func (s *Service) Generate(ctx context.Context, n int, seed uint64) (GenerateResult, error) {
	if n <= 0 || n > MaxOrders {
		return GenerateResult{}, ErrInvalidCount
	}
	if seed == 0 {
		seed = uint64(s.clock.Now().UnixNano())
	}
	token, ok, err := s.guard.TryLockJob(ctx, "demo:generate", generateLockTTL)
	if err != nil {
		return GenerateResult{}, err
	}
	if !ok {
		return GenerateResult{}, ErrGenerationInProgress
	}
	defer func() {
		if err := s.guard.ReleaseJob(context.WithoutCancel(ctx), "demo:generate", token); err != nil {
			s.log.Warn("failed to release demo lock", zap.Error(err))
		}
	}()
	cat, err := s.Catalog(ctx)
	if err != nil {
		return GenerateResult{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return GenerateResult{}, err
	}

	batch := Generate(cat, n, seed, s.clock.Now())
	result, err := s.Insert(ctx, batch, settings.OrderNumberPrefix)
	if err != nil {
		return GenerateResult{}, err
	}

	s.metrics.RecordDemoOrders(ctx, result.Orders)
	s.record(ctx, "demo.generated", map[string]any{
		"orders":  result.Orders,
		"clients": result.ClientsCreated,
		"seed":    seed,
	})
	return result, nil
}

// Insert persists batch. Demo clients reuse any existing client with the same
// phone number.
func (s *Service) Insert(ctx context.Context, batch Batch, prefix string) (GenerateResult, error) {
	var result GenerateResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := s.clients.WithTrx(tx)
		now := s.clock.Now()
		for _, c := range batch.Clients {
			existing, err := clients.FindOne(ctx, &clientdomain.Client{Phone: c.Phone})
			if err != nil {
				return err
			}
			if existing != nil {
				*c = *existing
				result.ClientsReused++
				continue
			}
			c.ID = s.genID.Generate()
			c.CreatedAt = now
			c.UpdatedAt = now
			if err := clients.Create(ctx, c); err != nil {
				return err
			}
			result.ClientsCreated++
		}

		for i, o := range batch.Orders {
			o.ID = s.genID.Generate()
			o.OrderNumber = orderdomain.NumberFor(prefix, o.ID)
			if i < len(batch.OrderClient) {
				client := batch.Clients[batch.OrderClient[i]]
				id := client.ID
				o.ClientID = &id
				o.ClientName = client.Name
			}
		}
		if err := s.orders.InsertBatch(ctx, tx, batch.Orders); err != nil {
			return err
		}
		result.Orders = len(batch.Orders)
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return result, nil
}

// Purge removes demo orders, then demo clients no longer referenced by orders.
func (s *Service) Purge(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders, err := s.orders.DeleteDemo(ctx, tx)
		if err != nil {
			return err
		}
		result.Orders = orders

		res := tx.Exec(`DELETE FROM clients WHERE is_demo = ? AND id NOT IN (SELECT client_id FROM orders WHERE client_id IS NOT NULL)`, true)
		if res.Error != nil {
			return res.Error
		}
		result.Clients = res.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeResult{}, err
	}

	s.record(ctx, "demo.purged", map[string]any{"orders": result.Orders, "clients": result.Clients})
	return result, nil
}

func (s *Service) record(ctx context.Context, action string, metadata map[string]any) {
	if err := s.audit.Record(ctx, action, "demo", "", metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
