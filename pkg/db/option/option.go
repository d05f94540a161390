package option

import (
	"strings"

	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

func Where(query any, args ...any) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

// ILike matches column case-insensitively against a substring.
func ILike(column, value string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			return db
		}
		return db.Where("LOWER("+column+") LIKE ?", "%"+value+"%")
	})
}

func OrderBy(order string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(order) == "" {
			return db
		}
		return db.Order(order)
	})
}

func Limit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ApplyPagination fetches one extra row so callers can detect another page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = pagination.DefaultPageSize
		}
		if size > pagination.MaxPageSize {
			size = pagination.MaxPageSize
		}
		if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor != nil && cursor.ID != "" {
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return db.Limit(size + 1)
	})
}
