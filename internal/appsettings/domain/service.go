package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
)

type SaveAppSettingsRequest struct {
	DefaultCurrency   string         `json:"defaultCurrency"`
	DefaultLanguage   string         `json:"defaultLanguage"`
	OrderNumberPrefix string         `json:"orderNumberPrefix"`
	AutoConfirm       bool           `json:"autoConfirm"`
	ShippingZones     []ShippingZone `json:"shippingZones"`
	WhatsAppTemplates Templates      `json:"whatsappTemplates"`
}

const (
	QuoteSourceZone = "zone"
	QuoteSourceCity = "city"
)

type ShippingQuote struct {
	City          string          `json:"city"`
	Fee           decimal.Decimal `json:"fee"`
	EstimatedDays int             `json:"estimatedDays,omitempty"`
	Zone          string          `json:"zone,omitempty"`
	Source        string          `json:"source"`
}

//go:generate mockgen -source=service.go -destination=mock/mock_service.go -package=mock

type Service interface {
	Get(ctx context.Context) (AppSettings, error)
	Save(ctx context.Context, req SaveAppSettingsRequest) (AppSettings, error)
	Patch(ctx context.Context, fields map[string]any) (AppSettings, error)

	Zones(ctx context.Context) ([]ShippingZone, error)
	AddZone(ctx context.Context, zone ShippingZone) (ShippingZone, error)
	UpdateZone(ctx context.Context, name string, zone ShippingZone) (ShippingZone, error)
	DeleteZone(ctx context.Context, name string) error
	// QuoteShipping prices delivery to a city: the first zone listing the city
	// wins, otherwise the city's own delivery fee applies.
	QuoteShipping(ctx context.Context, city string) (ShippingQuote, error)

	Templates(ctx context.Context, lang string) (map[string]string, error)
	SetTemplates(ctx context.Context, lang string, templates map[string]string) (map[string]string, error)
	RenderWhatsApp(ctx context.Context, order orderdomain.Order, lang string) (string, error)
}

var (
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidLanguage  = errors.New("invalid_language")
	ErrInvalidZone      = errors.New("invalid_zone")
	ErrDuplicateZone    = errors.New("duplicate_zone")
	ErrZoneNotFound     = errors.New("zone_not_found")
	ErrNoShippingRate   = errors.New("no_shipping_rate")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrTemplateNotFound = errors.New("template_not_found")
)
