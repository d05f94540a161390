package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
)

type ListOrderRequest struct {
	pagination.Pagination
	Status   string
	StoreID  string
	ClientID string
	Search   string
	From     *time.Time
	To       *time.Time
	DemoOnly bool
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

type CreateOrderRequest struct {
	ClientID          string           `json:"clientId"`
	ClientName        string           `json:"clientName"`
	ClientPhone       string           `json:"clientPhone"`
	CityID            string           `json:"cityId"`
	CityName          string           `json:"cityName"`
	Address           string           `json:"address"`
	StoreID           string           `json:"storeId"`
	ShippingCompanyID string           `json:"shippingCompanyId"`
	PaymentMethodID   string           `json:"paymentMethodId"`
	CurrencyCode      string           `json:"currencyCode"`
	ItemsTotal        decimal.Decimal  `json:"itemsTotal"`
	ShippingFee       *decimal.Decimal `json:"shippingFee"`
	TrackingNumber    string           `json:"trackingNumber"`
	Notes             string           `json:"notes"`
	ImportBatchID     string           `json:"-"`
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	Note           string `json:"note"`
	TrackingNumber string `json:"trackingNumber"`
}

type Service interface {
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, req CreateOrderRequest) (Order, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (Order, error)
	Delete(ctx context.Context, id string) error
	ReferenceCounter
}

// ReferenceCounter reports how many orders point at a catalog row.
type ReferenceCounter interface {
	CountReferences(ctx context.Context, column string, value any) (int64, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidClient     = errors.New("invalid_client")
	ErrInvalidPhone      = errors.New("invalid_phone")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidCity       = errors.New("invalid_city")
	ErrInvalidStore      = errors.New("invalid_store")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrInvalidReference  = errors.New("invalid_reference")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrInvalidDateRange  = errors.New("invalid_date_range")
	ErrNotFound          = errors.New("not_found")
)
