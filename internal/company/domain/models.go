package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

// CompanyInfo is the single business profile printed on receipts and reports.
type CompanyInfo struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"column:name;not null" json:"name"`
	Phone      string       `gorm:"column:phone" json:"phone"`
	Email      string       `gorm:"column:email" json:"email"`
	Address    string       `gorm:"column:address" json:"address"`
	City       string       `gorm:"column:city" json:"city"`
	Country    string       `gorm:"column:country" json:"country"`
	TaxNumber  string       `gorm:"column:tax_number" json:"taxNumber"`
	Website    string       `gorm:"column:website" json:"website"`
	Logo       string       `gorm:"column:logo;type:text" json:"logo"`
	FooterNote string       `gorm:"column:footer_note" json:"footerNote"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (CompanyInfo) TableName() string { return "company_info" }

func (c CompanyInfo) Columns() map[string]any {
	return map[string]any{
		"name":        c.Name,
		"phone":       c.Phone,
		"email":       c.Email,
		"address":     c.Address,
		"city":        c.City,
		"country":     c.Country,
		"tax_number":  c.TaxNumber,
		"website":     c.Website,
		"logo":        c.Logo,
		"footer_note": c.FooterNote,
	}
}

type Repository = pkgrepository.Repository[CompanyInfo]
