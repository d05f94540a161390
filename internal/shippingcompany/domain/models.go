package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

const TrackingPlaceholder = "{trackingNumber}"

type ShippingCompany struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"column:name;not null" json:"name"`
	Code                string       `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Phone               string       `gorm:"column:phone" json:"phone"`
	TrackingURLTemplate string       `gorm:"column:tracking_url_template" json:"trackingUrlTemplate"`
	IsActive            bool         `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt           time.Time    `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt           time.Time    `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (ShippingCompany) TableName() string { return "shipping_companies" }

func (c ShippingCompany) Columns() map[string]any {
	return map[string]any{
		"name":                  c.Name,
		"code":                  c.Code,
		"phone":                 c.Phone,
		"tracking_url_template": c.TrackingURLTemplate,
		"is_active":             c.IsActive,
	}
}

// TrackingURL fills the template with a tracking number. It returns "" when
// either side is missing.
func (c ShippingCompany) TrackingURL(trackingNumber string) string {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if c.TrackingURLTemplate == "" || trackingNumber == "" {
		return ""
	}
	if !strings.Contains(c.TrackingURLTemplate, TrackingPlaceholder) {
		return c.TrackingURLTemplate + url.PathEscape(trackingNumber)
	}
	return strings.ReplaceAll(c.TrackingURLTemplate, TrackingPlaceholder, url.PathEscape(trackingNumber))
}

type Repository = pkgrepository.Repository[ShippingCompany]
