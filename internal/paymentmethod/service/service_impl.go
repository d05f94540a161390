package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	pkgdb "github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxFeePercent = decimal.NewFromInt(100)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Refs    orderdomain.ReferenceCounter
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	refs    orderdomain.ReferenceCounter
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("paymentmethod.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePaymentMethodRequest) (domain.PaymentMethod, error) {
	now := s.clock.Now()
	method := domain.PaymentMethod{
		ID:         s.genID.Generate(),
		Name:       strings.TrimSpace(req.Name),
		Code:       strings.TrimSpace(req.Code),
		FeePercent: req.FeePercent,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	method.Code = codeFor(method.Code, method.Name)
	if err := validate(method); err != nil {
		return domain.PaymentMethod{}, err
	}

	if err := s.repo.Create(ctx, &method); err != nil {
		return domain.PaymentMethod{}, mapWriteErr(err)
	}

	s.record(ctx, "payment_method.created", method.ID.String(), map[string]any{"name": method.Name, "code": method.Code})
	return method, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.PaymentMethod, error) {
	opts := []option.QueryOption{option.OrderBy("name asc")}
	if activeOnly {
		opts = append(opts, option.Where("is_active = ?", true))
	}
	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PaymentMethod, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.PaymentMethod, error) {
	methodID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || methodID == 0 {
		return domain.PaymentMethod{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindOne(ctx, &domain.PaymentMethod{ID: methodID})
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	if item == nil {
		return domain.PaymentMethod{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdatePaymentMethodRequest) (domain.PaymentMethod, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Code = codeFor(strings.TrimSpace(req.Code), next.Name)
	next.FeePercent = req.FeePercent
	next.IsActive = req.IsActive
	if err := validate(next); err != nil {
		return domain.PaymentMethod{}, err
	}
	return s.persist(ctx, next, next.Columns(), "payment_method.updated")
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (domain.PaymentMethod, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.PaymentMethod, fields); err != nil {
		return domain.PaymentMethod{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	next, err := fieldmap.Apply(fieldmap.PaymentMethod, current, fields)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Code = codeFor(strings.TrimSpace(next.Code), next.Name)
	if err := validate(next); err != nil {
		return domain.PaymentMethod{}, err
	}

	columns, err := fieldmap.Select(fieldmap.PaymentMethod, next.Columns(), fields)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	return s.persist(ctx, next, columns, "payment_method.patched")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	method, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefPaymentMethod, method.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, method.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "payment_method.deleted", method.ID.String(), map[string]any{"name": method.Name})
	return nil
}

func (s *Service) persist(ctx context.Context, next domain.PaymentMethod, columns map[string]any, action string) (domain.PaymentMethod, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PaymentMethod{}, domain.ErrNotFound
		}
		return domain.PaymentMethod{}, mapWriteErr(err)
	}

	s.record(ctx, action, next.ID.String(), fieldmap.ToAppLenient(fieldmap.PaymentMethod, columns))
	return next, nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "payment_method", action)
	if err := s.audit.Record(ctx, action, "payment_method", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

// codeFor keeps an explicit code and otherwise derives one from the name,
// e.g. "Cash on delivery" becomes "cash_on_delivery".
func codeFor(code, name string) string {
	if code == "" {
		code = name
	}
	return strings.ReplaceAll(slug.Make(code), "-", "_")
}

func validate(m domain.PaymentMethod) error {
	if m.Name == "" || m.Code == "" {
		return domain.ErrInvalidName
	}
	if m.FeePercent.IsNegative() || m.FeePercent.GreaterThan(maxFeePercent) {
		return domain.ErrInvalidFeePercent
	}
	return nil
}

func mapWriteErr(err error) error {
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateCode
	}
	return err
}
