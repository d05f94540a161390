package domain

import (
	"context"
	"errors"
)

type CreateStoreRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	CityID   string `json:"cityId"`
	IsActive *bool  `json:"isActive"`
}

type UpdateStoreRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	CityID   string `json:"cityId"`
	IsActive bool   `json:"isActive"`
}

type Service interface {
	Create(ctx context.Context, req CreateStoreRequest) (Store, error)
	List(ctx context.Context, activeOnly bool) ([]Store, error)
	Get(ctx context.Context, id string) (Store, error)
	Update(ctx context.Context, id string, req UpdateStoreRequest) (Store, error)
	Patch(ctx context.Context, id string, fields map[string]any) (Store, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidCity   = errors.New("invalid_city")
	ErrDuplicateCode = errors.New("duplicate_code")
	ErrInUse         = errors.New("store_in_use")
	ErrNotFound      = errors.New("not_found")
)
