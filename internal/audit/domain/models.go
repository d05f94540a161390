package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const ActorSystem = "system"

// ActivityLog is one entry of the global activity log.
type ActivityLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    *string           `gorm:"column:actor_id" json:"actorId,omitempty"`
	ActorName  string            `gorm:"column:actor_name;not null" json:"actorName"`
	ActorRole  string            `gorm:"column:actor_role" json:"actorRole,omitempty"`
	Action     string            `gorm:"column:action;not null;index" json:"action"`
	TargetType string            `gorm:"column:target_type;not null" json:"targetType"`
	TargetID   *string           `gorm:"column:target_id" json:"targetId,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"column:ip_address" json:"ipAddress,omitempty"`
	UserAgent  *string           `gorm:"column:user_agent" json:"userAgent,omitempty"`
	RequestID  *string           `gorm:"column:request_id" json:"requestId,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null" json:"createdAt"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorName  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *Cursor
	Limit      int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}
