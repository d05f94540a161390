package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreatePaymentMethodRequest struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	FeePercent decimal.Decimal `json:"feePercent"`
	IsActive   *bool           `json:"isActive"`
}

type UpdatePaymentMethodRequest struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	FeePercent decimal.Decimal `json:"feePercent"`
	IsActive   bool            `json:"isActive"`
}

type Service interface {
	Create(ctx context.Context, req CreatePaymentMethodRequest) (PaymentMethod, error)
	List(ctx context.Context, activeOnly bool) ([]PaymentMethod, error)
	Get(ctx context.Context, id string) (PaymentMethod, error)
	Update(ctx context.Context, id string, req UpdatePaymentMethodRequest) (PaymentMethod, error)
	Patch(ctx context.Context, id string, fields map[string]any) (PaymentMethod, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidFeePercent = errors.New("invalid_fee_percent")
	ErrDuplicateCode     = errors.New("duplicate_code")
	ErrInUse             = errors.New("payment_method_in_use")
	ErrNotFound          = errors.New("not_found")
)
