package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
	"gorm.io/datatypes"
)

// Templates maps language → order status → message text.
type Templates map[string]map[string]string

type ShippingZone struct {
	Name          string          `json:"name"`
	Cities        []string        `json:"cities"`
	Fee           decimal.Decimal `json:"fee"`
	EstimatedDays int             `json:"estimatedDays"`
}

// Covers reports whether city belongs to the zone, ignoring case and spacing.
func (z ShippingZone) Covers(city string) bool {
	needle := normalize(city)
	if needle == "" {
		return false
	}
	for _, c := range z.Cities {
		if normalize(c) == needle {
			return true
		}
	}
	return false
}

type AppSettings struct {
	ID                snowflake.ID                      `gorm:"primaryKey" json:"id"`
	DefaultCurrency   string                            `gorm:"column:default_currency;size:3;not null" json:"defaultCurrency"`
	DefaultLanguage   string                            `gorm:"column:default_language;not null" json:"defaultLanguage"`
	OrderNumberPrefix string                            `gorm:"column:order_number_prefix" json:"orderNumberPrefix"`
	AutoConfirm       bool                              `gorm:"column:auto_confirm;not null;default:false" json:"autoConfirm"`
	ShippingZones     datatypes.JSONSlice[ShippingZone] `gorm:"column:shipping_zones" json:"shippingZones"`
	WhatsAppTemplates datatypes.JSONType[Templates]     `gorm:"column:whatsapp_templates" json:"whatsappTemplates"`
	CreatedAt         time.Time                         `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt         time.Time                         `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (AppSettings) TableName() string { return "app_settings" }

func (s AppSettings) Columns() map[string]any {
	return map[string]any{
		"default_currency":    s.DefaultCurrency,
		"default_language":    s.DefaultLanguage,
		"order_number_prefix": s.OrderNumberPrefix,
		"auto_confirm":        s.AutoConfirm,
		"shipping_zones":      s.ShippingZones,
		"whatsapp_templates":  s.WhatsAppTemplates,
	}
}

// Zone returns the index of the zone named name, or -1.
func (s AppSettings) Zone(name string) int {
	needle := normalize(name)
	for i, z := range s.ShippingZones {
		if normalize(z.Name) == needle {
			return i
		}
	}
	return -1
}

func normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

type Repository = pkgrepository.Repository[AppSettings]
