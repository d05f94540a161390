package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	pkgdb "github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
		log:     p.Log.Named("shippingcompany.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateShippingCompanyRequest) (domain.ShippingCompany, error) {
	now := s.clock.Now()
	company := domain.ShippingCompany{
		ID:                  s.genID.Generate(),
		Name:                strings.TrimSpace(req.Name),
		Phone:               strings.TrimSpace(req.Phone),
		TrackingURLTemplate: strings.TrimSpace(req.TrackingURLTemplate),
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	company.Code = codeFor(req.Code, company.Name)
	if err := validate(company); err != nil {
		return domain.ShippingCompany{}, err
	}

	if err := s.repo.Create(ctx, &company); err != nil {
		return domain.ShippingCompany{}, mapWriteErr(err)
	}

	s.record(ctx, "shipping_company.created", company.ID.String(), map[string]any{"name": company.Name, "code": company.Code})
	return company, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.ShippingCompany, error) {
	opts := []option.QueryOption{option.OrderBy("name asc")}
	if activeOnly {
		opts = append(opts, option.Where("is_active = ?", true))
	}
	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ShippingCompany, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.ShippingCompany, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || companyID == 0 {
		return domain.ShippingCompany{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindOne(ctx, &domain.ShippingCompany{ID: companyID})
	if err != nil {
		return domain.ShippingCompany{}, err
	}
	if item == nil {
		return domain.ShippingCompany{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateShippingCompanyRequest) (domain.ShippingCompany, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.ShippingCompany{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Code = codeFor(req.Code, next.Name)
	next.Phone = strings.TrimSpace(req.Phone)
	next.TrackingURLTemplate = strings.TrimSpace(req.TrackingURLTemplate)
	next.IsActive = req.IsActive
	if err := validate(next); err != nil {
		return domain.ShippingCompany{}, err
	}
	return s.persist(ctx, next, next.Columns(), "shipping_company.updated")
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (domain.ShippingCompany, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.ShippingCompany, fields); err != nil {
		return domain.ShippingCompany{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.ShippingCompany{}, err
	}

	next, err := fieldmap.Apply(fieldmap.ShippingCompany, current, fields)
	if err != nil {
		return domain.ShippingCompany{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Code = codeFor(next.Code, next.Name)
	next.TrackingURLTemplate = strings.TrimSpace(next.TrackingURLTemplate)
	if err := validate(next); err != nil {
		return domain.ShippingCompany{}, err
	}

	columns, err := fieldmap.Select(fieldmap.ShippingCompany, next.Columns(), fields)
	if err != nil {
		return domain.ShippingCompany{}, err
	}
	return s.persist(ctx, next, columns, "shipping_company.patched")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	company, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefShippingCompany, company.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, company.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "shipping_company.deleted", company.ID.String(), map[string]any{"name": company.Name})
	return nil
}

func (s *Service) persist(ctx context.Context, next domain.ShippingCompany, columns map[string]any, action string) (domain.ShippingCompany, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShippingCompany{}, domain.ErrNotFound
		}
		return domain.ShippingCompany{}, mapWriteErr(err)
	}

	s.record(ctx, action, next.ID.String(), fieldmap.ToAppLenient(fieldmap.ShippingCompany, columns))
	return next, nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "shipping_company", action)
	if err := s.audit.Record(ctx, action, "shipping_company", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func validate(c domain.ShippingCompany) error {
	if c.Name == "" || c.Code == "" {
		return domain.ErrInvalidName
	}
	if c.TrackingURLTemplate != "" {
		probe := strings.ReplaceAll(c.TrackingURLTemplate, domain.TrackingPlaceholder, "X")
		u, err := url.Parse(probe)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return domain.ErrInvalidTrackingURL
		}
	}
	return nil
}

func codeFor(code, name string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		code = name
	}
	return slug.Make(code)
}

func mapWriteErr(err error) error {
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateCode
	}
	return err
}
