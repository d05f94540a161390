package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

type PaymentMethod struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	Code       string          `gorm:"column:code;not null;uniqueIndex" json:"code"`
	FeePercent decimal.Decimal `gorm:"column:fee_percent;type:numeric(5,2);not null;default:0" json:"feePercent"`
	IsActive   bool            `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

func (m PaymentMethod) Columns() map[string]any {
	return map[string]any{
		"name":        m.Name,
		"code":        m.Code,
		"fee_percent": m.FeePercent,
		"is_active":   m.IsActive,
	}
}

// Fee returns the surcharge applied to amount.
func (m PaymentMethod) Fee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(m.FeePercent).Div(decimal.NewFromInt(100)).Round(2)
}

type Repository = pkgrepository.Repository[PaymentMethod]
