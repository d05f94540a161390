package domain

import (
	"time"

	"github.com/shopspring/decimal"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

// Currency is keyed by its ISO 4217 code. ExchangeRate is the number of units
// of this currency per one unit of the default currency.
type Currency struct {
	Code         string          `gorm:"primaryKey;column:code;size:3" json:"code"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Symbol       string          `gorm:"column:symbol" json:"symbol"`
	ExchangeRate decimal.Decimal `gorm:"column:exchange_rate;type:numeric(18,6);not null" json:"exchangeRate"`
	IsDefault    bool            `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	IsActive     bool            `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Currency) TableName() string { return "currencies" }

func (c Currency) Columns() map[string]any {
	return map[string]any{
		"name":          c.Name,
		"symbol":        c.Symbol,
		"exchange_rate": c.ExchangeRate,
		"is_active":     c.IsActive,
	}
}

type Repository = pkgrepository.Repository[Currency]
