package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

type Store struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"column:name;not null" json:"name"`
	Code      string        `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Phone     string        `gorm:"column:phone" json:"phone"`
	Address   string        `gorm:"column:address" json:"address"`
	CityID    *snowflake.ID `gorm:"column:city_id;index" json:"cityId"`
	IsActive  bool          `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt time.Time     `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time     `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Store) TableName() string { return "stores" }

func (s Store) Columns() map[string]any {
	return map[string]any{
		"name":      s.Name,
		"code":      s.Code,
		"phone":     s.Phone,
		"address":   s.Address,
		"city_id":   s.CityID,
		"is_active": s.IsActive,
	}
}

type Repository = pkgrepository.Repository[Store]
