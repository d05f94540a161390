package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

type City struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Region      string          `gorm:"column:region" json:"region"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null" json:"deliveryFee"`
	IsActive    bool            `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (City) TableName() string { return "cities" }

// Columns returns the writable columns keyed by storage name.
func (c City) Columns() map[string]any {
	return map[string]any{
		"name":         c.Name,
		"region":       c.Region,
		"delivery_fee": c.DeliveryFee,
		"is_active":    c.IsActive,
	}
}

type Repository = pkgrepository.Repository[City]
