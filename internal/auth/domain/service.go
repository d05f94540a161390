package domain

import (
	"context"
	"errors"
	"time"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
	IsActive *bool  `json:"isActive"`
}

type UpdateUserRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (User, error)
	ChangePassword(ctx context.Context, id string, newPassword string) error
	Delete(ctx context.Context, id string) error
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	// EnsureAdmin creates the bootstrap admin when no user exists yet.
	EnsureAdmin(ctx context.Context, username, password string) (created bool, err error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserInactive       = errors.New("user_inactive")
	ErrUserExists         = errors.New("user_already_exists")
	ErrLastAdmin          = errors.New("last_active_admin")
	ErrUserNotFound       = errors.New("user_not_found")
)
