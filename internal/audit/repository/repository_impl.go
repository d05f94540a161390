package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/shipdesk/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ActivityLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List returns entries newest first. One row past Limit is fetched so the
// caller can tell whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ActivityLog, error) {
	stmt := db.WithContext(ctx).
		Scopes(byAction(filter.Action), byTarget(filter.TargetType, filter.TargetID), byActor(filter.ActorName),
			createdBetween(filter), after(filter.Cursor)).
		Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var logs []*domain.ActivityLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.ActivityLog{})
	return res.RowsAffected, res.Error
}

// byAction matches an exact action, or every action in a group when the
// filter ends in ".*", e.g. "order.*".
func byAction(action string) func(*gorm.DB) *gorm.DB {
	action = strings.TrimSpace(action)
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case action == "":
			return db
		case strings.HasSuffix(action, ".*"):
			return db.Where("action LIKE ?", strings.TrimSuffix(action, "*")+"%")
		default:
			return db.Where("action = ?", action)
		}
	}
}

func byTarget(targetType, targetID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if t := strings.TrimSpace(targetType); t != "" {
			db = db.Where("target_type = ?", t)
		}
		if id := strings.TrimSpace(targetID); id != "" {
			db = db.Where("target_id = ?", id)
		}
		return db
	}
}

func byActor(name string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if name = strings.TrimSpace(name); name != "" {
			return db.Where("actor_name = ?", name)
		}
		return db
	}
}

func createdBetween(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.StartAt != nil {
			db = db.Where("created_at >= ?", filter.StartAt.UTC())
		}
		if filter.EndAt != nil {
			db = db.Where("created_at <= ?", filter.EndAt.UTC())
		}
		return db
	}
}

func after(cursor *domain.Cursor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor == nil {
			return db
		}
		return db.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
}
