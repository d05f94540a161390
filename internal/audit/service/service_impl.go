package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	"github.com/smallbiznis/shipdesk/internal/audit/masking"
	"github.com/smallbiznis/shipdesk/internal/clock"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ActionCleared = "activity_log.cleared"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	entry := auditdomain.ActivityLog{
		ID:         s.genID.Generate(),
		ActorName:  auditdomain.ActorSystem,
		Action:     action,
		TargetType: targetType,
		TargetID:   optional(targetID),
		Metadata:   datatypes.JSONMap(masking.MaskSensitive(metadata)),
		CreatedAt:  s.clock.Now(),
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}

	if actor, ok := obscontext.ActorFromContext(ctx); ok {
		entry.ActorID = optional(actor.ID)
		entry.ActorRole = actor.Role
		if actor.Username != "" {
			entry.ActorName = actor.Username
		}
	}
	client := obscontext.ClientFromContext(ctx)
	entry.IPAddress = optional(client.IPAddress)
	entry.UserAgent = optional(client.UserAgent)
	entry.RequestID = optional(obscontext.RequestIDFromContext(ctx))

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write activity log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListActivityLogRequest) (auditdomain.ListActivityLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListActivityLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil || decoded == nil {
			return auditdomain.ListActivityLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 || decoded.CreatedAt.IsZero() {
			return auditdomain.ListActivityLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.Cursor{ID: id, CreatedAt: decoded.CreatedAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > pagination.MaxPageSize {
		pageSize = pagination.MaxPageSize
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ActorName:  req.ActorName,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListActivityLogResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.ActivityLog) pagination.Cursor {
		return pagination.Cursor{ID: item.ID.String(), CreatedAt: item.CreatedAt}
	})

	logs := make([]auditdomain.ActivityLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return auditdomain.ListActivityLogResponse{PageInfo: pageInfo, ActivityLogs: logs}, nil
}

// Clear empties the log, leaving a single entry that records who cleared it.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteAll(ctx, s.db)
	if err != nil {
		return 0, err
	}
	s.log.Info("activity log cleared", zap.Int64("removed", removed))
	if err := s.Record(ctx, ActionCleared, "activity_log", "", map[string]any{
		"removed": strconv.FormatInt(removed, 10),
	}); err != nil {
		return removed, err
	}
	return removed, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
