package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusNew            Status = "new"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

// Progression is the forward path every order walks until delivery.
var Progression = []Status{
	StatusNew,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

func ParseStatus(value string) (Status, bool) {
	s := Status(value)
	switch s {
	case StatusCancelled, StatusReturned:
		return s, true
	}
	return s, s.step() >= 0
}

func (s Status) step() int {
	for i, p := range Progression {
		if p == s {
			return i
		}
	}
	return -1
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// CanTransition reports whether an order may move from s to next. Orders only
// advance along Progression, or leave it for cancelled/returned while not terminal.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() || s == next {
		return false
	}
	switch next {
	case StatusCancelled, StatusReturned:
		return true
	}
	from, to := s.step(), next.step()
	return from >= 0 && to > from
}

type StatusChange struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	By     string    `json:"by,omitempty"`
	Note   string    `json:"note,omitempty"`
}

type Order struct {
	ID                snowflake.ID                      `gorm:"primaryKey" json:"id"`
	OrderNumber       string                            `gorm:"column:order_number;uniqueIndex;not null" json:"orderNumber"`
	ClientID          *snowflake.ID                     `gorm:"column:client_id;index" json:"clientId,omitempty"`
	ClientName        string                            `gorm:"column:client_name;not null" json:"clientName"`
	ClientPhone       string                            `gorm:"column:client_phone;not null" json:"clientPhone"`
	CityID            *snowflake.ID                     `gorm:"column:city_id;index" json:"cityId,omitempty"`
	CityName          string                            `gorm:"column:city_name" json:"cityName"`
	Address           string                            `gorm:"column:address" json:"address"`
	StoreID           *snowflake.ID                     `gorm:"column:store_id;index" json:"storeId,omitempty"`
	ShippingCompanyID *snowflake.ID                     `gorm:"column:shipping_company_id;index" json:"shippingCompanyId,omitempty"`
	PaymentMethodID   *snowflake.ID                     `gorm:"column:payment_method_id;index" json:"paymentMethodId,omitempty"`
	CurrencyCode      string                            `gorm:"column:currency_code;size:3;index" json:"currencyCode"`
	ItemsTotal        decimal.Decimal                   `gorm:"column:items_total;type:numeric(14,2);not null" json:"itemsTotal"`
	ShippingFee       decimal.Decimal                   `gorm:"column:shipping_fee;type:numeric(14,2);not null" json:"shippingFee"`
	Total             decimal.Decimal                   `gorm:"column:total;type:numeric(14,2);not null" json:"total"`
	Status            Status                            `gorm:"column:status;not null;index" json:"status"`
	StatusHistory     datatypes.JSONSlice[StatusChange] `gorm:"column:status_history" json:"statusHistory"`
	TrackingNumber    string                            `gorm:"column:tracking_number" json:"trackingNumber"`
	Notes             string                            `gorm:"column:notes" json:"notes"`
	IsDemo            bool                              `gorm:"column:is_demo;not null;default:false;index" json:"isDemo"`
	ImportBatchID     *string                           `gorm:"column:import_batch_id" json:"importBatchId,omitempty"`
	CreatedAt         time.Time                         `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt         time.Time                         `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

// NumberFor renders the human-facing order number for id.
func NumberFor(prefix string, id snowflake.ID) string {
	return prefix + strings.ToUpper(strconv.FormatInt(id.Int64(), 36))
}

// Columns that may reference catalog rows.
const (
	RefClient          = "client_id"
	RefCity            = "city_id"
	RefStore           = "store_id"
	RefShippingCompany = "shipping_company_id"
	RefPaymentMethod   = "payment_method_id"
	RefCurrency        = "currency_code"
)

func IsReferenceColumn(column string) bool {
	switch column {
	case RefClient, RefCity, RefStore, RefShippingCompany, RefPaymentMethod, RefCurrency:
		return true
	default:
		return false
	}
}
