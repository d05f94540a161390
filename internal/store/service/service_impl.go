package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	"github.com/smallbiznis/shipdesk/internal/store/domain"
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
	Cities  citydomain.Service
	Audit   auditdomain.Service
	Refs    orderdomain.ReferenceCounter
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	cities  citydomain.Service
	audit   auditdomain.Service
	refs    orderdomain.ReferenceCounter
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("store.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		cities:  p.Cities,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateStoreRequest) (domain.Store, error) {
	cityID, err := s.resolveCity(ctx, req.CityID)
	if err != nil {
		return domain.Store{}, err
	}

	now := s.clock.Now()
	store := domain.Store{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CityID:    cityID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		store.IsActive = *req.IsActive
	}
	store.Code = codeFor(req.Code, store.Name)
	if store.Name == "" || store.Code == "" {
		return domain.Store{}, domain.ErrInvalidName
	}

	if err := s.repo.Create(ctx, &store); err != nil {
		return domain.Store{}, mapWriteErr(err)
	}

	s.record(ctx, "store.created", store.ID.String(), map[string]any{"name": store.Name, "code": store.Code})
	return store, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Store, error) {
	opts := []option.QueryOption{option.OrderBy("name asc")}
	if activeOnly {
		opts = append(opts, option.Where("is_active = ?", true))
	}
	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Store, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Store, error) {
	storeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || storeID == 0 {
		return domain.Store{}, domain.ErrInvalidID
	}
	item, err := s.repo.FindOne(ctx, &domain.Store{ID: storeID})
	if err != nil {
		return domain.Store{}, err
	}
	if item == nil {
		return domain.Store{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateStoreRequest) (domain.Store, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}
	cityID, err := s.resolveCity(ctx, req.CityID)
	if err != nil {
		return domain.Store{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Code = codeFor(req.Code, next.Name)
	next.Phone = strings.TrimSpace(req.Phone)
	next.Address = strings.TrimSpace(req.Address)
	next.CityID = cityID
	next.IsActive = req.IsActive
	if next.Name == "" || next.Code == "" {
		return domain.Store{}, domain.ErrInvalidName
	}
	return s.persist(ctx, next, next.Columns(), "store.updated")
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (domain.Store, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.Store, fields); err != nil {
		return domain.Store{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Store{}, err
	}

	next, err := fieldmap.Apply(fieldmap.Store, current, fields)
	if err != nil {
		return domain.Store{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Code = codeFor(next.Code, next.Name)
	if next.Name == "" || next.Code == "" {
		return domain.Store{}, domain.ErrInvalidName
	}
	if next.CityID != nil {
		if _, err := s.resolveCity(ctx, next.CityID.String()); err != nil {
			return domain.Store{}, err
		}
	}

	columns, err := fieldmap.Select(fieldmap.Store, next.Columns(), fields)
	if err != nil {
		return domain.Store{}, err
	}
	return s.persist(ctx, next, columns, "store.patched")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	store, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefStore, store.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, store.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "store.deleted", store.ID.String(), map[string]any{"name": store.Name})
	return nil
}

func (s *Service) resolveCity(ctx context.Context, id string) (*snowflake.ID, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	city, err := s.cities.Get(ctx, id)
	if err != nil {
		if errors.Is(err, citydomain.ErrNotFound) || errors.Is(err, citydomain.ErrInvalidID) {
			return nil, domain.ErrInvalidCity
		}
		return nil, err
	}
	return &city.ID, nil
}

func (s *Service) persist(ctx context.Context, next domain.Store, columns map[string]any, action string) (domain.Store, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Store{}, domain.ErrNotFound
		}
		return domain.Store{}, mapWriteErr(err)
	}

	s.record(ctx, action, next.ID.String(), fieldmap.ToAppLenient(fieldmap.Store, columns))
	return next, nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "store", action)
	if err := s.audit.Record(ctx, action, "store", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
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
