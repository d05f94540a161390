// Package domain contains the user accounts that sign in to the admin API.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pkgrepository "github.com/smallbiznis/shipdesk/pkg/repository"
)

// User is an operator account. PasswordHash is an encoded Argon2id hash.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"column:username;size:64;not null;uniqueIndex" json:"username"`
	FullName     string       `gorm:"column:full_name" json:"fullName"`
	Email        string       `gorm:"column:email" json:"email"`
	Phone        string       `gorm:"column:phone" json:"phone"`
	Role         string       `gorm:"column:role;size:16;not null;index" json:"role"`
	PasswordHash string       `gorm:"column:password_hash;not null" json:"-"`
	IsActive     bool         `gorm:"column:is_active;not null" json:"isActive"`
	LastLoginAt  *time.Time   `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u User) Columns() map[string]any {
	return map[string]any{
		"username":  u.Username,
		"full_name": u.FullName,
		"email":     u.Email,
		"phone":     u.Phone,
		"role":      u.Role,
		"is_active": u.IsActive,
	}
}

type Repository = pkgrepository.Repository[User]
