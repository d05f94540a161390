package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	"github.com/smallbiznis/shipdesk/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB                *gorm.DB
	Log               *zap.Logger
	GenID             *snowflake.Node
	Clock             clock.Clock
	Repo              domain.Repository
	Clients           clientdomain.Service
	Cities            citydomain.Service
	Stores            storedomain.Service
	ShippingCompanies shippingcompanydomain.Service
	PaymentMethods    paymentmethoddomain.Service
	Currencies        currencydomain.Service
	Settings          appsettingsdomain.Service
	Audit             auditdomain.Service
	Metrics           *metrics.Metrics `optional:"true"`
}

type Service struct {
	db                *gorm.DB
	log               *zap.Logger
	genID             *snowflake.Node
	clock             clock.Clock
	repo              domain.Repository
	clients           clientdomain.Service
	cities            citydomain.Service
	stores            storedomain.Service
	shippingCompanies shippingcompanydomain.Service
	paymentMethods    paymentmethoddomain.Service
	currencies        currencydomain.Service
	settings          appsettingsdomain.Service
	audit             auditdomain.Service
	metrics           *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:                p.DB,
		log:               p.Log.Named("order.service"),
		genID:             p.GenID,
		clock:             p.Clock,
		repo:              p.Repo,
		clients:           p.Clients,
		cities:            p.Cities,
		stores:            p.Stores,
		shippingCompanies: p.ShippingCompanies,
		paymentMethods:    p.PaymentMethods,
		currencies:        p.Currencies,
		settings:          p.Settings,
		audit:             p.Audit,
		metrics:           p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	filter := domain.ListFilter{
		Search:   req.Search,
		From:     req.From,
		To:       req.To,
		DemoOnly: req.DemoOnly,
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		parsed, ok := domain.ParseStatus(status)
		if !ok {
			return domain.ListOrderResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = parsed
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return domain.ListOrderResponse{}, domain.ErrInvalidDateRange
	}

	var err error
	if filter.StoreID, err = optionalID(req.StoreID, domain.ErrInvalidStore); err != nil {
		return domain.ListOrderResponse{}, err
	}
	if filter.ClientID, err = optionalID(req.ClientID, domain.ErrInvalidClient); err != nil {
		return domain.ListOrderResponse{}, err
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil || cursor == nil {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil || id == 0 || cursor.CreatedAt.IsZero() {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.Cursor{ID: id, CreatedAt: cursor.CreatedAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	if pageSize > pagination.MaxPageSize {
		pageSize = pagination.MaxPageSize
	}
	filter.Limit = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}
	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(o *domain.Order) pagination.Cursor {
		return pagination.Cursor{ID: o.ID.String(), CreatedAt: o.CreatedAt}
	})

	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		if item != nil {
			orders = append(orders, *item)
		}
	}
	return domain.ListOrderResponse{PageInfo: pageInfo, Orders: orders}, nil
}

// Get accepts either the numeric ID or the order number.
func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, domain.ErrInvalidID
	}

	var (
		order *domain.Order
		err   error
	)
	if orderID, parseErr := snowflake.ParseString(id); parseErr == nil && orderID != 0 {
		order, err = s.repo.FindByID(ctx, s.db, orderID)
	} else {
		order, err = s.repo.FindByNumber(ctx, s.db, id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	order, err := s.Build(ctx, req)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordStatusChange(ctx, string(order.Status))
	s.record(ctx, "order.created", order.ID.String(), map[string]any{
		"orderNumber": order.OrderNumber,
		"total":       order.Total.StringFixed(2),
		"status":      string(order.Status),
	})
	return order, nil
}

// Build resolves every reference of req and prices the order without saving it.
func (s *Service) Build(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if req.ItemsTotal.IsNegative() {
		return domain.Order{}, domain.ErrInvalidAmount
	}
	if req.ShippingFee != nil && req.ShippingFee.IsNegative() {
		return domain.Order{}, domain.ErrInvalidAmount
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	order := domain.Order{
		ID:             id,
		OrderNumber:    domain.NumberFor(settings.OrderNumberPrefix, id),
		Address:        strings.TrimSpace(req.Address),
		ItemsTotal:     req.ItemsTotal.Round(2),
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if batch := strings.TrimSpace(req.ImportBatchID); batch != "" {
		order.ImportBatchID = &batch
	}

	if err := s.resolveClient(ctx, req, &order); err != nil {
		return domain.Order{}, err
	}
	if err := s.resolveCity(ctx, req, &order); err != nil {
		return domain.Order{}, err
	}
	if err := s.resolveCatalog(ctx, req, &order); err != nil {
		return domain.Order{}, err
	}

	order.CurrencyCode = settings.DefaultCurrency
	if code := strings.TrimSpace(req.CurrencyCode); code != "" {
		currency, err := s.currencies.Get(ctx, code)
		if err != nil {
			return domain.Order{}, domain.ErrInvalidCurrency
		}
		order.CurrencyCode = currency.Code
	}

	order.ShippingFee = decimal.Zero
	if req.ShippingFee != nil {
		order.ShippingFee = req.ShippingFee.Round(2)
	} else if order.CityName != "" {
		quote, err := s.settings.QuoteShipping(ctx, order.CityName)
		switch {
		case err == nil:
			order.ShippingFee = quote.Fee.Round(2)
		case !errors.Is(err, appsettingsdomain.ErrNoShippingRate):
			return domain.Order{}, err
		}
	}

	order.Total = order.ItemsTotal.Add(order.ShippingFee)
	if order.PaymentMethodID != nil {
		method, err := s.paymentMethods.Get(ctx, order.PaymentMethodID.String())
		if err != nil {
			return domain.Order{}, err
		}
		order.Total = order.Total.Add(method.Fee(order.ItemsTotal))
	}

	by := actorName(ctx)
	order.Status = domain.StatusNew
	order.StatusHistory = datatypes.JSONSlice[domain.StatusChange]{{Status: domain.StatusNew, At: now, By: by}}
	if settings.AutoConfirm {
		order.Status = domain.StatusConfirmed
		order.StatusHistory = append(order.StatusHistory, domain.StatusChange{Status: domain.StatusConfirmed, At: now, By: by, Note: "auto-confirmed"})
	}
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, req domain.UpdateStatusRequest) (domain.Order, error) {
	next, ok := domain.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanTransition(next) {
		return domain.Order{}, domain.ErrInvalidTransition
	}

	previous := order.Status
	now := s.clock.Now()
	order.Status = next
	order.UpdatedAt = now
	order.StatusHistory = append(append(datatypes.JSONSlice[domain.StatusChange]{}, order.StatusHistory...), domain.StatusChange{
		Status: next,
		At:     now,
		By:     actorName(ctx),
		Note:   strings.TrimSpace(req.Note),
	})
	if tracking := strings.TrimSpace(req.TrackingNumber); tracking != "" {
		order.TrackingNumber = tracking
	}

	if err := s.repo.UpdateStatus(ctx, s.db, &order); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}

	s.metrics.RecordStatusChange(ctx, string(next))
	s.record(ctx, "order.status_changed", order.ID.String(), map[string]any{
		"orderNumber": order.OrderNumber,
		"from":        string(previous),
		"to":          string(next),
	})
	return order, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, order.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.record(ctx, "order.deleted", order.ID.String(), map[string]any{"orderNumber": order.OrderNumber})
	return nil
}

func (s *Service) CountReferences(ctx context.Context, column string, value any) (int64, error) {
	return s.repo.CountReferences(ctx, s.db, column, value)
}

func (s *Service) resolveClient(ctx context.Context, req domain.CreateOrderRequest, order *domain.Order) error {
	if strings.TrimSpace(req.ClientID) != "" {
		client, err := s.clients.Get(ctx, req.ClientID)
		if err != nil {
			return domain.ErrInvalidClient
		}
		order.ClientID = &client.ID
		order.ClientName = client.Name
		order.ClientPhone = client.Phone
		if order.Address == "" {
			order.Address = client.Address
		}
		if strings.TrimSpace(req.CityName) == "" && req.CityID == "" {
			order.CityName = client.City
		}
		return nil
	}

	client, _, err := s.clients.UpsertByPhone(ctx, clientdomain.ClientInput{
		Name:    req.ClientName,
		Phone:   req.ClientPhone,
		City:    req.CityName,
		Address: req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, clientdomain.ErrInvalidPhone):
			return domain.ErrInvalidPhone
		case errors.Is(err, clientdomain.ErrInvalidName):
			return domain.ErrInvalidClient
		}
		return err
	}
	order.ClientID = &client.ID
	order.ClientName = client.Name
	order.ClientPhone = client.Phone
	return nil
}

// resolveCity links a catalog city when possible. Free-text city names that
// match nothing are kept as typed.
func (s *Service) resolveCity(ctx context.Context, req domain.CreateOrderRequest, order *domain.Order) error {
	if strings.TrimSpace(req.CityID) != "" {
		city, err := s.cities.Get(ctx, req.CityID)
		if err != nil {
			return domain.ErrInvalidCity
		}
		order.CityID = &city.ID
		order.CityName = city.Name
		return nil
	}

	name := strings.TrimSpace(req.CityName)
	if name == "" {
		name = order.CityName
	}
	if name == "" {
		return nil
	}
	order.CityName = name
	city, err := s.cities.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, citydomain.ErrNotFound) || errors.Is(err, citydomain.ErrInvalidName) {
			return nil
		}
		return err
	}
	order.CityID = &city.ID
	order.CityName = city.Name
	return nil
}

func (s *Service) resolveCatalog(ctx context.Context, req domain.CreateOrderRequest, order *domain.Order) error {
	if id := strings.TrimSpace(req.StoreID); id != "" {
		store, err := s.stores.Get(ctx, id)
		if err != nil {
			return domain.ErrInvalidStore
		}
		order.StoreID = &store.ID
	}
	if id := strings.TrimSpace(req.ShippingCompanyID); id != "" {
		company, err := s.shippingCompanies.Get(ctx, id)
		if err != nil {
			return domain.ErrInvalidReference
		}
		order.ShippingCompanyID = &company.ID
	}
	if id := strings.TrimSpace(req.PaymentMethodID); id != "" {
		method, err := s.paymentMethods.Get(ctx, id)
		if err != nil {
			return domain.ErrInvalidReference
		}
		order.PaymentMethodID = &method.ID
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	if err := s.audit.Record(ctx, action, "order", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func actorName(ctx context.Context) string {
	if actor, ok := obscontext.ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return auditdomain.ActorSystem
}

func optionalID(value string, invalid error) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return nil, invalid
	}
	return &id, nil
}
