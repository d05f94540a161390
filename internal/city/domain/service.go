package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateCityRequest struct {
	Name        string          `json:"name"`
	Region      string          `json:"region"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	IsActive    *bool           `json:"isActive"`
}

type UpdateCityRequest struct {
	Name        string          `json:"name"`
	Region      string          `json:"region"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	IsActive    bool            `json:"isActive"`
}

type ListCityRequest struct {
	Search     string
	ActiveOnly bool
}

type Service interface {
	Create(ctx context.Context, req CreateCityRequest) (City, error)
	List(ctx context.Context, req ListCityRequest) ([]City, error)
	Get(ctx context.Context, id string) (City, error)
	Update(ctx context.Context, id string, req UpdateCityRequest) (City, error)
	Patch(ctx context.Context, id string, fields map[string]any) (City, error)
	Delete(ctx context.Context, id string) error
	// FindByName resolves free-text city names, tolerating case and small typos.
	FindByName(ctx context.Context, name string) (City, error)
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidDeliveryFee = errors.New("invalid_delivery_fee")
	ErrDuplicateName      = errors.New("duplicate_name")
	ErrInUse              = errors.New("city_in_use")
	ErrNotFound           = errors.New("not_found")
)
