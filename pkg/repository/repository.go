package repository

import (
	"context"

	"github.com/smallbiznis/shipdesk/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic save/delete surface shared by the catalog services.
// FindOne returns (nil, nil) when nothing matches.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID any, fields map[string]any) error
	Delete(ctx context.Context, resourceID any) error
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
	BatchUpdate(ctx context.Context, resources []*T) error
}
