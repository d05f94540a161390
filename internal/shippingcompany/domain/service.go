package domain

import (
	"context"
	"errors"
)

type CreateShippingCompanyRequest struct {
	Name                string `json:"name"`
	Code                string `json:"code"`
	Phone               string `json:"phone"`
	TrackingURLTemplate string `json:"trackingUrlTemplate"`
	IsActive            *bool  `json:"isActive"`
}

type UpdateShippingCompanyRequest struct {
	Name                string `json:"name"`
	Code                string `json:"code"`
	Phone               string `json:"phone"`
	TrackingURLTemplate string `json:"trackingUrlTemplate"`
	IsActive            bool   `json:"isActive"`
}

type Service interface {
	Create(ctx context.Context, req CreateShippingCompanyRequest) (ShippingCompany, error)
	List(ctx context.Context, activeOnly bool) ([]ShippingCompany, error)
	Get(ctx context.Context, id string) (ShippingCompany, error)
	Update(ctx context.Context, id string, req UpdateShippingCompanyRequest) (ShippingCompany, error)
	Patch(ctx context.Context, id string, fields map[string]any) (ShippingCompany, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidTrackingURL = errors.New("invalid_tracking_url")
	ErrDuplicateCode      = errors.New("duplicate_code")
	ErrInUse              = errors.New("shipping_company_in_use")
	ErrNotFound           = errors.New("not_found")
)
