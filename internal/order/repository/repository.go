package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shipdesk/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	if order == nil {
		return nil
	}
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(orders, 200).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Order, error) {
	return r.findOne(ctx, db, "order_number = ?", strings.TrimSpace(number))
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Order, error) {
	var orders []*domain.Order
	if err := db.WithContext(ctx).Where(query, arg).Limit(1).Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.StoreID != nil {
		stmt = stmt.Where("store_id = ?", *filter.StoreID)
	}
	if filter.ClientID != nil {
		stmt = stmt.Where("client_id = ?", *filter.ClientID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("LOWER(order_number) LIKE ? OR LOWER(client_name) LIKE ? OR client_phone LIKE ? OR LOWER(tracking_number) LIKE ?",
			like, like, like, like)
	}
	if filter.From != nil {
		stmt = stmt.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("created_at <= ?", filter.To.UTC())
	}
	if filter.DemoOnly {
		stmt = stmt.Where("is_demo = ?", true)
	}

	if filter.Ascending {
		if filter.Cursor != nil {
			stmt = stmt.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
				filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
		}
		stmt = stmt.Order("created_at asc, id asc")
	} else {
		if filter.Cursor != nil {
			stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
		}
		stmt = stmt.Order("created_at desc, id desc")
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	res := db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":          order.Status,
			"status_history":  order.StatusHistory,
			"tracking_number": order.TrackingNumber,
			"updated_at":      order.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, id)
	return res.RowsAffected > 0, res.Error
}

func (r *repo) DeleteDemo(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM orders WHERE is_demo = ?`, true)
	return res.RowsAffected, res.Error
}

func (r *repo) CountReferences(ctx context.Context, db *gorm.DB, column string, value any) (int64, error) {
	if !domain.IsReferenceColumn(column) {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidReference, column)
	}
	var count int64
	err := db.WithContext(ctx).Model(&domain.Order{}).Where(column+" = ?", value).Count(&count).Error
	return count, err
}
