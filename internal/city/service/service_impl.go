package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/city/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
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
		log:     p.Log.Named("city.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCityRequest) (domain.City, error) {
	now := s.clock.Now()
	city := domain.City{
		ID:          s.genID.Generate(),
		Name:        strings.TrimSpace(req.Name),
		Region:      strings.TrimSpace(req.Region),
		DeliveryFee: req.DeliveryFee,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		city.IsActive = *req.IsActive
	}
	if err := validate(city); err != nil {
		return domain.City{}, err
	}

	if err := s.repo.Create(ctx, &city); err != nil {
		return domain.City{}, s.mapWriteErr(err)
	}

	s.record(ctx, "city.created", city.ID.String(), map[string]any{"name": city.Name})
	return city, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCityRequest) ([]domain.City, error) {
	opts := []option.QueryOption{option.OrderBy("name asc")}
	if req.ActiveOnly {
		opts = append(opts, option.Where("is_active = ?", true))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		opts = append(opts, option.ILike("name", search))
	}

	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	cities := make([]domain.City, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		cities = append(cities, *item)
	}
	return cities, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.City, error) {
	cityID, err := parseID(id)
	if err != nil {
		return domain.City{}, err
	}
	return s.get(ctx, cityID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCityRequest) (domain.City, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.City{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	next.Region = strings.TrimSpace(req.Region)
	next.DeliveryFee = req.DeliveryFee
	next.IsActive = req.IsActive
	if err := validate(next); err != nil {
		return domain.City{}, err
	}

	return s.persist(ctx, next, next.Columns(), "city.updated")
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (domain.City, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.City, fields); err != nil {
		return domain.City{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.City{}, err
	}

	next, err := fieldmap.Apply(fieldmap.City, current, fields)
	if err != nil {
		return domain.City{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Region = strings.TrimSpace(next.Region)
	if err := validate(next); err != nil {
		return domain.City{}, err
	}

	columns, err := fieldmap.Select(fieldmap.City, next.Columns(), fields)
	if err != nil {
		return domain.City{}, err
	}
	return s.persist(ctx, next, columns, "city.patched")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	city, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefCity, city.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, city.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "city.deleted", city.ID.String(), map[string]any{"name": city.Name})
	return nil
}

func (s *Service) FindByName(ctx context.Context, name string) (domain.City, error) {
	needle := normalizeName(name)
	if needle == "" {
		return domain.City{}, domain.ErrInvalidName
	}

	cities, err := s.List(ctx, domain.ListCityRequest{ActiveOnly: true})
	if err != nil {
		return domain.City{}, err
	}
	return matchCity(cities, needle)
}

// matchCity prefers an exact case-insensitive match, then the single closest
// name within the typo allowance. Ties are treated as no match.
func matchCity(cities []domain.City, needle string) (domain.City, error) {
	for _, c := range cities {
		if normalizeName(c.Name) == needle {
			return c, nil
		}
	}

	allowance := 1
	if utf8.RuneCountInString(needle) >= 6 {
		allowance = 2
	}

	best := -1
	bestDistance := allowance + 1
	tie := false
	for i, c := range cities {
		d := levenshtein.ComputeDistance(needle, normalizeName(c.Name))
		switch {
		case d < bestDistance:
			best, bestDistance, tie = i, d, false
		case d == bestDistance:
			tie = true
		}
	}
	if best < 0 || tie {
		return domain.City{}, domain.ErrNotFound
	}
	return cities[best], nil
}

func (s *Service) get(ctx context.Context, id snowflake.ID) (domain.City, error) {
	item, err := s.repo.FindOne(ctx, &domain.City{ID: id})
	if err != nil {
		return domain.City{}, err
	}
	if item == nil {
		return domain.City{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) persist(ctx context.Context, next domain.City, columns map[string]any, action string) (domain.City, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.City{}, domain.ErrNotFound
		}
		return domain.City{}, s.mapWriteErr(err)
	}

	s.record(ctx, action, next.ID.String(), fieldmap.ToAppLenient(fieldmap.City, columns))
	return next, nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "city", action)
	if err := s.audit.Record(ctx, action, "city", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) mapWriteErr(err error) error {
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateName
	}
	return err
}

func validate(c domain.City) error {
	if c.Name == "" {
		return domain.ErrInvalidName
	}
	if c.DeliveryFee.IsNegative() {
		return domain.ErrInvalidDeliveryFee
	}
	return nil
}

func normalizeName(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
