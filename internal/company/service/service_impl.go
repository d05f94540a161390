package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/imaging"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Cache   *cache.SettingsCache `optional:"true"`
	Metrics *metrics.Metrics     `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	cache   *cache.SettingsCache
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("company.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		cache:   p.Cache,
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context) (domain.CompanyInfo, error) {
	var cached domain.CompanyInfo
	if s.cache.Load(ctx, cache.KeyCompany, &cached) {
		return cached, nil
	}

	info, err := s.load(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	if info == nil {
		return domain.CompanyInfo{}, nil
	}
	s.cache.Store(ctx, cache.KeyCompany, info)
	return *info, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveCompanyRequest) (domain.CompanyInfo, error) {
	current, err := s.load(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}

	next := domain.CompanyInfo{}
	if current != nil {
		next = *current
	}
	next.Name = strings.TrimSpace(req.Name)
	next.Phone = strings.TrimSpace(req.Phone)
	next.Email = strings.TrimSpace(req.Email)
	next.Address = strings.TrimSpace(req.Address)
	next.City = strings.TrimSpace(req.City)
	next.Country = strings.TrimSpace(req.Country)
	next.TaxNumber = strings.TrimSpace(req.TaxNumber)
	next.Website = strings.TrimSpace(req.Website)
	next.FooterNote = strings.TrimSpace(req.FooterNote)
	if err := validate(next); err != nil {
		return domain.CompanyInfo{}, err
	}

	return s.upsert(ctx, current, next, next.Columns(), "company.updated")
}

func (s *Service) Patch(ctx context.Context, fields map[string]any) (domain.CompanyInfo, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.CompanyInfo, fields); err != nil {
		return domain.CompanyInfo{}, err
	}
	current, err := s.load(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}

	base := domain.CompanyInfo{}
	if current != nil {
		base = *current
	}
	next, err := fieldmap.Apply(fieldmap.CompanyInfo, base, fields)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	if _, ok := fields["logo"]; ok && next.Logo != "" {
		_, data, err := imaging.DecodeDataURI(next.Logo)
		if err != nil {
			return domain.CompanyInfo{}, domain.ErrInvalidLogo
		}
		logo, err := imaging.ProcessLogo(data)
		if err != nil {
			return domain.CompanyInfo{}, domain.ErrInvalidLogo
		}
		next.Logo = logo.DataURI
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Email = strings.TrimSpace(next.Email)
	if err := validate(next); err != nil {
		return domain.CompanyInfo{}, err
	}

	columns, err := fieldmap.Select(fieldmap.CompanyInfo, next.Columns(), fields)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	return s.upsert(ctx, current, next, columns, "company.patched")
}

// UploadLogo stores a downscaled copy of the image as a data URI.
func (s *Service) UploadLogo(ctx context.Context, data []byte) (domain.CompanyInfo, error) {
	logo, err := imaging.ProcessLogo(data)
	if err != nil {
		if errors.Is(err, imaging.ErrImageTooLarge) {
			return domain.CompanyInfo{}, err
		}
		return domain.CompanyInfo{}, domain.ErrInvalidLogo
	}

	current, err := s.load(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	next := domain.CompanyInfo{}
	if current != nil {
		next = *current
	}
	next.Logo = logo.DataURI

	info, err := s.upsert(ctx, current, next, map[string]any{"logo": next.Logo}, "company.logo_uploaded")
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	s.log.Info("company logo updated", zap.String("mime", logo.Mime), zap.Int("width", logo.Width), zap.Int("height", logo.Height))
	return info, nil
}

func (s *Service) RemoveLogo(ctx context.Context) (domain.CompanyInfo, error) {
	current, err := s.load(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	if current == nil || current.Logo == "" {
		if current == nil {
			return domain.CompanyInfo{}, nil
		}
		return *current, nil
	}
	next := *current
	next.Logo = ""
	return s.upsert(ctx, current, next, map[string]any{"logo": ""}, "company.logo_removed")
}

func (s *Service) load(ctx context.Context) (*domain.CompanyInfo, error) {
	return s.repo.FindOne(ctx, nil, option.OrderBy("created_at asc"))
}

// upsert inserts the profile on first save and otherwise writes only columns.
func (s *Service) upsert(ctx context.Context, current *domain.CompanyInfo, next domain.CompanyInfo, columns map[string]any, action string) (domain.CompanyInfo, error) {
	now := s.clock.Now()
	next.UpdatedAt = now
	if current == nil {
		next.ID = s.genID.Generate()
		next.CreatedAt = now
		if err := s.repo.Create(ctx, &next); err != nil {
			return domain.CompanyInfo{}, err
		}
	} else {
		columns["updated_at"] = now
		if err := s.repo.Update(ctx, next.ID, columns); err != nil {
			return domain.CompanyInfo{}, err
		}
	}

	s.cache.Invalidate(ctx, cache.KeyCompany)
	s.metrics.RecordSettingsChange(ctx, "company", action)
	if err := s.audit.Record(ctx, action, "company", next.ID.String(), fieldmap.ToAppLenient(fieldmap.CompanyInfo, columns)); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
	return next, nil
}

func validate(c domain.CompanyInfo) error {
	if c.Name == "" {
		return domain.ErrInvalidName
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return domain.ErrInvalidEmail
		}
	}
	return nil
}
