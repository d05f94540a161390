package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	pkgdb "github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ratePlaces = 6

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Refs    orderdomain.ReferenceCounter
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	refs    orderdomain.ReferenceCounter
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("currency.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

// Create stores a new currency. The first currency ever created becomes the
// default regardless of req.IsDefault.
func (s *Service) Create(ctx context.Context, req domain.CreateCurrencyRequest) (domain.Currency, error) {
	code, err := normalizeCode(req.Code)
	if err != nil {
		return domain.Currency{}, err
	}

	now := s.clock.Now()
	currency := domain.Currency{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Symbol:       strings.TrimSpace(req.Symbol),
		ExchangeRate: req.ExchangeRate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsActive != nil {
		currency.IsActive = *req.IsActive
	}
	if currency.ExchangeRate.IsZero() {
		currency.ExchangeRate = decimal.NewFromInt(1)
	}
	if err := validate(currency); err != nil {
		return domain.Currency{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)
		existing, err := repo.Count(ctx, nil)
		if err != nil {
			return err
		}
		makeDefault := req.IsDefault || existing == 0
		if makeDefault && !currency.IsActive {
			return domain.ErrDefaultInactive
		}
		if err := repo.Create(ctx, &currency); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCode
			}
			return err
		}
		if makeDefault {
			promoted, err := s.promote(ctx, tx, currency.Code)
			if err != nil {
				return err
			}
			currency = promoted
		}
		return nil
	})
	if err != nil {
		return domain.Currency{}, err
	}

	s.record(ctx, "currency.created", currency.Code, map[string]any{
		"name":      currency.Name,
		"isDefault": currency.IsDefault,
	})
	return currency, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Currency, error) {
	opts := []option.QueryOption{option.OrderBy("is_default desc"), option.OrderBy("code asc")}
	if activeOnly {
		opts = append(opts, option.Where("is_active = ?", true))
	}
	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Currency, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, code string) (domain.Currency, error) {
	normalized, err := normalizeCode(code)
	if err != nil {
		return domain.Currency{}, err
	}
	return s.get(ctx, s.repo, normalized)
}

func (s *Service) Default(ctx context.Context) (domain.Currency, error) {
	item, err := s.repo.FindOne(ctx, nil, option.Where("is_default = ?", true))
	if err != nil {
		return domain.Currency{}, err
	}
	if item == nil {
		return domain.Currency{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, code string, req domain.UpdateCurrencyRequest) (domain.Currency, error) {
	current, err := s.Get(ctx, code)
	if err != nil {
		return domain.Currency{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Symbol = strings.TrimSpace(req.Symbol)
	next.ExchangeRate = req.ExchangeRate
	next.IsActive = req.IsActive
	if err := s.validateChange(current, next); err != nil {
		return domain.Currency{}, err
	}

	return s.persist(ctx, next, next.Columns(), "currency.updated")
}

func (s *Service) Patch(ctx context.Context, code string, fields map[string]any) (domain.Currency, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.Currency, fields); err != nil {
		return domain.Currency{}, err
	}
	current, err := s.Get(ctx, code)
	if err != nil {
		return domain.Currency{}, err
	}

	next, err := fieldmap.Apply(fieldmap.Currency, current, fields)
	if err != nil {
		return domain.Currency{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Symbol = strings.TrimSpace(next.Symbol)
	if err := s.validateChange(current, next); err != nil {
		return domain.Currency{}, err
	}

	columns, err := fieldmap.Select(fieldmap.Currency, next.Columns(), fields)
	if err != nil {
		return domain.Currency{}, err
	}
	return s.persist(ctx, next, columns, "currency.patched")
}

// Delete removes a currency. The default can only go when it is the last one.
func (s *Service) Delete(ctx context.Context, code string) error {
	currency, err := s.Get(ctx, code)
	if err != nil {
		return err
	}

	if currency.IsDefault {
		total, err := s.repo.Count(ctx, nil)
		if err != nil {
			return err
		}
		if total > 1 {
			return domain.ErrDeleteDefault
		}
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefCurrency, currency.Code)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, currency.Code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "currency.deleted", currency.Code, map[string]any{"name": currency.Name})
	return nil
}

// SetDefault switches the default currency and rebases every exchange rate so
// the new default has a rate of exactly one.
func (s *Service) SetDefault(ctx context.Context, code string) (domain.Currency, error) {
	normalized, err := normalizeCode(code)
	if err != nil {
		return domain.Currency{}, err
	}

	var result domain.Currency
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.get(ctx, s.repo.WithTrx(tx), normalized)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return domain.ErrDefaultInactive
		}
		result, err = s.promote(ctx, tx, target.Code)
		return err
	})
	if err != nil {
		return domain.Currency{}, err
	}

	s.record(ctx, "currency.default_changed", result.Code, map[string]any{"code": result.Code})
	return result, nil
}

// Convert translates amount between two currencies through the default rate.
func (s *Service) Convert(ctx context.Context, req domain.ConvertRequest) (domain.ConvertResponse, error) {
	from, err := s.Get(ctx, req.From)
	if err != nil {
		return domain.ConvertResponse{}, err
	}
	to, err := s.Get(ctx, req.To)
	if err != nil {
		return domain.ConvertResponse{}, err
	}
	if !from.ExchangeRate.IsPositive() || !to.ExchangeRate.IsPositive() {
		return domain.ConvertResponse{}, domain.ErrInvalidExchangeRate
	}

	return domain.ConvertResponse{
		Amount: req.Amount,
		From:   from.Code,
		To:     to.Code,
		Result: ConvertAmount(req.Amount, from.ExchangeRate, to.ExchangeRate),
	}, nil
}

// ConvertAmount converts using per-default rates and rounds to cents.
func ConvertAmount(amount, fromRate, toRate decimal.Decimal) decimal.Decimal {
	if fromRate.Equal(toRate) {
		return amount.Round(2)
	}
	return amount.Mul(toRate).Div(fromRate).Round(2)
}

func (s *Service) promote(ctx context.Context, tx *gorm.DB, code string) (domain.Currency, error) {
	repo := s.repo.WithTrx(tx)
	target, err := s.get(ctx, repo, code)
	if err != nil {
		return domain.Currency{}, err
	}

	base := target.ExchangeRate
	now := s.clock.Now()
	all, err := repo.Find(ctx, nil)
	if err != nil {
		return domain.Currency{}, err
	}
	for _, c := range all {
		if c == nil {
			continue
		}
		rate := c.ExchangeRate
		if base.IsPositive() && !base.Equal(decimal.NewFromInt(1)) {
			rate = rate.DivRound(base, ratePlaces)
		}
		isDefault := c.Code == target.Code
		if isDefault {
			rate = decimal.NewFromInt(1)
		}
		if err := repo.Update(ctx, c.Code, map[string]any{
			"exchange_rate": rate,
			"is_default":    isDefault,
			"updated_at":    now,
		}); err != nil {
			return domain.Currency{}, err
		}
	}

	return s.get(ctx, repo, target.Code)
}

func (s *Service) get(ctx context.Context, repo domain.Repository, code string) (domain.Currency, error) {
	item, err := repo.FindOne(ctx, &domain.Currency{Code: code})
	if err != nil {
		return domain.Currency{}, err
	}
	if item == nil {
		return domain.Currency{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) persist(ctx context.Context, next domain.Currency, columns map[string]any, action string) (domain.Currency, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.Code, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Currency{}, domain.ErrNotFound
		}
		return domain.Currency{}, err
	}

	s.record(ctx, action, next.Code, fieldmap.ToAppLenient(fieldmap.Currency, columns))
	return next, nil
}

func (s *Service) validateChange(current, next domain.Currency) error {
	if err := validate(next); err != nil {
		return err
	}
	if current.IsDefault {
		if !next.IsActive {
			return domain.ErrDefaultInactive
		}
		if !next.ExchangeRate.Equal(decimal.NewFromInt(1)) {
			return domain.ErrInvalidExchangeRate
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "currency", action)
	if err := s.audit.Record(ctx, action, "currency", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func validate(c domain.Currency) error {
	if c.Name == "" {
		return domain.ErrInvalidName
	}
	if !c.ExchangeRate.IsPositive() {
		return domain.ErrInvalidExchangeRate
	}
	return nil
}

func normalizeCode(value string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if len(code) != 3 {
		return "", domain.ErrInvalidCode
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", domain.ErrInvalidCode
		}
	}
	return code, nil
}
