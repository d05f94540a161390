package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/shipdesk/pkg/db/pagination"
)

type ClientInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	City    string `json:"city"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type ListClientRequest struct {
	pagination.Pagination
	Search string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	Get(ctx context.Context, id string) (Client, error)
	FindByPhone(ctx context.Context, phone string) (Client, error)
	Create(ctx context.Context, req ClientInput) (Client, error)
	Update(ctx context.Context, id string, req ClientInput) (Client, error)
	Patch(ctx context.Context, id string, fields map[string]any) (Client, error)
	Delete(ctx context.Context, id string) error
	// UpsertByPhone creates the client or refreshes the non-empty fields of the
	// one already holding that phone number. created reports which happened.
	UpsertByPhone(ctx context.Context, req ClientInput) (client Client, created bool, err error)
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPhone     = errors.New("invalid_phone")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrDuplicatePhone   = errors.New("duplicate_phone")
	ErrInUse            = errors.New("client_has_orders")
	ErrNotFound         = errors.New("not_found")
)
