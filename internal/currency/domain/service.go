package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateCurrencyRequest struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	IsDefault    bool            `json:"isDefault"`
	IsActive     *bool           `json:"isActive"`
}

type UpdateCurrencyRequest struct {
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	IsActive     bool            `json:"isActive"`
}

type ConvertRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

type ConvertResponse struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Result decimal.Decimal `json:"result"`
}

type Service interface {
	Create(ctx context.Context, req CreateCurrencyRequest) (Currency, error)
	List(ctx context.Context, activeOnly bool) ([]Currency, error)
	Get(ctx context.Context, code string) (Currency, error)
	Default(ctx context.Context) (Currency, error)
	Update(ctx context.Context, code string, req UpdateCurrencyRequest) (Currency, error)
	Patch(ctx context.Context, code string, fields map[string]any) (Currency, error)
	Delete(ctx context.Context, code string) error
	// SetDefault marks code as the default currency and clears the flag elsewhere.
	SetDefault(ctx context.Context, code string) (Currency, error)
	Convert(ctx context.Context, req ConvertRequest) (ConvertResponse, error)
}

var (
	ErrInvalidCode         = errors.New("invalid_code")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidExchangeRate = errors.New("invalid_exchange_rate")
	ErrDuplicateCode       = errors.New("duplicate_code")
	ErrDefaultInactive     = errors.New("default_currency_inactive")
	ErrDeleteDefault       = errors.New("cannot_delete_default_currency")
	ErrInUse               = errors.New("currency_in_use")
	ErrNotFound            = errors.New("not_found")
)
