package repository

import (
	"context"

	"github.com/smallbiznis/shipdesk/internal/order/domain"
	"gorm.io/gorm"
)

type referenceCounter struct {
	db   *gorm.DB
	repo domain.Repository
}

// NewReferenceCounter exposes order reference counts to the catalog services
// without making them depend on the order service.
func NewReferenceCounter(db *gorm.DB, repo domain.Repository) domain.ReferenceCounter {
	return &referenceCounter{db: db, repo: repo}
}

func (r *referenceCounter) CountReferences(ctx context.Context, column string, value any) (int64, error) {
	return r.repo.CountReferences(ctx, r.db, column, value)
}
