package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status    Status
	StoreID   *snowflake.ID
	ClientID  *snowflake.ID
	Search    string
	From      *time.Time
	To        *time.Time
	DemoOnly  bool
	Cursor    *Cursor
	Limit     int
	Ascending bool
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertBatch(ctx context.Context, db *gorm.DB, orders []*Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Order, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Order, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, order *Order) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	DeleteDemo(ctx context.Context, db *gorm.DB) (int64, error)
	CountReferences(ctx context.Context, db *gorm.DB, column string, value any) (int64, error)
}
