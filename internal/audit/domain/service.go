package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
)

type ListActivityLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorName  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListActivityLogResponse struct {
	pagination.PageInfo
	ActivityLogs []ActivityLog `json:"activityLogs"`
}

type Service interface {
	Record(ctx context.Context, action, targetType, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListActivityLogRequest) (ListActivityLogResponse, error)
	Clear(ctx context.Context) (int64, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
