package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActivityLog, error)
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}
