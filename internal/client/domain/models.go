package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"column:name;not null" json:"name"`
	Phone     string       `gorm:"column:phone;not null;uniqueIndex" json:"phone"`
	Email     string       `gorm:"column:email" json:"email"`
	City      string       `gorm:"column:city" json:"city"`
	Address   string       `gorm:"column:address" json:"address"`
	Notes     string       `gorm:"column:notes" json:"notes"`
	IsDemo    bool         `gorm:"column:is_demo;not null;default:false;index" json:"isDemo"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;index" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Client) TableName() string { return "clients" }

func (c Client) Columns() map[string]any {
	return map[string]any{
		"name":    c.Name,
		"phone":   c.Phone,
		"email":   c.Email,
		"city":    c.City,
		"address": c.Address,
		"notes":   c.Notes,
	}
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type Repository = pkgrepository.Repository[Client]
