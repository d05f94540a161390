package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/client/domain"
	"github.com/smallbiznis/shipdesk/internal/clock"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	pkgdb "github.com/smallbiznis/shipdesk/pkg/db"
	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPhoneDigits = 6

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
		log:     p.Log.Named("client.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		refs:    p.Refs,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	if pageSize > pagination.MaxPageSize {
		pageSize = pagination.MaxPageSize
	}

	opts := []option.QueryOption{option.OrderBy("created_at desc, id desc"), option.Limit(pageSize + 1)}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil || cursor == nil {
			return domain.ListClientResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil || id == 0 {
			return domain.ListClientResponse{}, domain.ErrInvalidPageToken
		}
		opts = append(opts, option.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, id))
	}
	if search := strings.ToLower(strings.TrimSpace(req.Search)); search != "" {
		opts = append(opts, option.Where("LOWER(name) LIKE ? OR phone LIKE ?", "%"+search+"%", "%"+search+"%"))
	}

	items, err := s.repo.Find(ctx, nil, opts...)
	if err != nil {
		return domain.ListClientResponse{}, err
	}
	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(c *domain.Client) pagination.Cursor {
		return pagination.Cursor{ID: c.ID.String(), CreatedAt: c.CreatedAt}
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item != nil {
			clients = append(clients, *item)
		}
	}
	return domain.ListClientResponse{PageInfo: pageInfo, Clients: clients}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Client, error) {
	clientID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || clientID == 0 {
		return domain.Client{}, domain.ErrInvalidID
	}
	return s.findOne(ctx, &domain.Client{ID: clientID})
}

func (s *Service) FindByPhone(ctx context.Context, phone string) (domain.Client, error) {
	normalized := domain.NormalizePhone(phone)
	if normalized == "" {
		return domain.Client{}, domain.ErrInvalidPhone
	}
	return s.findOne(ctx, &domain.Client{Phone: normalized})
}

func (s *Service) Create(ctx context.Context, req domain.ClientInput) (domain.Client, error) {
	now := s.clock.Now()
	client := fromInput(req)
	client.ID = s.genID.Generate()
	client.CreatedAt = now
	client.UpdatedAt = now
	if err := validate(client); err != nil {
		return domain.Client{}, err
	}

	if err := s.repo.Create(ctx, &client); err != nil {
		return domain.Client{}, mapWriteErr(err)
	}

	s.record(ctx, "client.created", client.ID.String(), map[string]any{"name": client.Name, "phone": client.Phone})
	return client, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.ClientInput) (domain.Client, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	next := fromInput(req)
	next.ID = current.ID
	next.IsDemo = current.IsDemo
	next.CreatedAt = current.CreatedAt
	if err := validate(next); err != nil {
		return domain.Client{}, err
	}
	return s.persist(ctx, next, next.Columns(), "client.updated")
}

func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (domain.Client, error) {
	if _, err := fieldmap.PatchColumns(fieldmap.Client, fields); err != nil {
		return domain.Client{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	next, err := fieldmap.Apply(fieldmap.Client, current, fields)
	if err != nil {
		return domain.Client{}, err
	}
	next.Name = strings.TrimSpace(next.Name)
	next.Phone = domain.NormalizePhone(next.Phone)
	next.Email = strings.TrimSpace(next.Email)
	if err := validate(next); err != nil {
		return domain.Client{}, err
	}

	columns, err := fieldmap.Select(fieldmap.Client, next.Columns(), fields)
	if err != nil {
		return domain.Client{}, err
	}
	return s.persist(ctx, next, columns, "client.patched")
}

func (s *Service) Delete(ctx context.Context, id string) error {
	client, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.refs.CountReferences(ctx, orderdomain.RefClient, client.ID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrInUse
	}

	if err := s.repo.Delete(ctx, client.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if pkgdb.IsForeignKeyErr(err) {
			return domain.ErrInUse
		}
		return err
	}

	s.record(ctx, "client.deleted", client.ID.String(), map[string]any{"name": client.Name})
	return nil
}

func (s *Service) UpsertByPhone(ctx context.Context, req domain.ClientInput) (domain.Client, bool, error) {
	incoming := fromInput(req)
	if len(strings.TrimLeft(incoming.Phone, "+")) < minPhoneDigits {
		return domain.Client{}, false, domain.ErrInvalidPhone
	}

	current, err := s.findOne(ctx, &domain.Client{Phone: incoming.Phone})
	if errors.Is(err, domain.ErrNotFound) {
		created, err := s.Create(ctx, req)
		return created, err == nil, err
	}
	if err != nil {
		return domain.Client{}, false, err
	}

	next := current
	merge(&next.Name, incoming.Name)
	merge(&next.Email, incoming.Email)
	merge(&next.City, incoming.City)
	merge(&next.Address, incoming.Address)
	merge(&next.Notes, incoming.Notes)
	if next == current {
		return current, false, nil
	}
	if err := validate(next); err != nil {
		return domain.Client{}, false, err
	}

	updated, err := s.persist(ctx, next, next.Columns(), "client.updated")
	return updated, false, err
}

func (s *Service) findOne(ctx context.Context, query *domain.Client) (domain.Client, error) {
	item, err := s.repo.FindOne(ctx, query)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) persist(ctx context.Context, next domain.Client, columns map[string]any, action string) (domain.Client, error) {
	next.UpdatedAt = s.clock.Now()
	columns["updated_at"] = next.UpdatedAt
	if err := s.repo.Update(ctx, next.ID, columns); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Client{}, domain.ErrNotFound
		}
		return domain.Client{}, mapWriteErr(err)
	}

	s.record(ctx, action, next.ID.String(), fieldmap.ToAppLenient(fieldmap.Client, columns))
	return next, nil
}

func (s *Service) record(ctx context.Context, action, targetID string, metadata map[string]any) {
	s.metrics.RecordSettingsChange(ctx, "client", action)
	if err := s.audit.Record(ctx, action, "client", targetID, metadata); err != nil {
		s.log.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}

func fromInput(req domain.ClientInput) domain.Client {
	return domain.Client{
		Name:    strings.TrimSpace(req.Name),
		Phone:   domain.NormalizePhone(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		City:    strings.TrimSpace(req.City),
		Address: strings.TrimSpace(req.Address),
		Notes:   strings.TrimSpace(req.Notes),
	}
}

func merge(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func validate(c domain.Client) error {
	if c.Name == "" {
		return domain.ErrInvalidName
	}
	if len(strings.TrimLeft(c.Phone, "+")) < minPhoneDigits {
		return domain.ErrInvalidPhone
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return domain.ErrInvalidEmail
		}
	}
	return nil
}

func mapWriteErr(err error) error {
	if pkgdb.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicatePhone
	}
	return err
}
