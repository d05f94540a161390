// Package demodata fabricates realistic clients and orders for trying the
// admin screens without real data.
package demodata

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	"gorm.io/datatypes"
)

const (
	MaxOrders = 5000

	// Orders are spread over this window ending one week before now.
	spreadWindow = 30 * 24 * time.Hour
	settleWindow = 7 * 24 * time.Hour
)

// Catalog holds the rows demo orders point at.
type Catalog struct {
	Cities         []citydomain.City
	Stores         []storedomain.Store
	Shippers       []shippingcompanydomain.ShippingCompany
	PaymentMethods []paymentmethoddomain.PaymentMethod
	Currency       string
}

// Batch is a generated, not yet persisted, set of demo rows. IDs and order
// numbers are assigned on insert.
type Batch struct {
	Clients []*clientdomain.Client
	Orders  []*orderdomain.Order
	// OrderClient maps each order to its index in Clients.
	OrderClient []int
}

// Generate fabricates n orders and the clients placing them. The result only
// depends on cat, n, seed and now.
func Generate(cat Catalog, n int, seed uint64, now time.Time) Batch {
	if n <= 0 {
		return Batch{}
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))

	clientCount := max(1, n*2/3)
	batch := Batch{
		Clients:     make([]*clientdomain.Client, 0, clientCount),
		Orders:      make([]*orderdomain.Order, 0, n),
		OrderClient: make([]int, 0, n),
	}

	phones := make(map[string]struct{}, clientCount)
	for len(batch.Clients) < clientCount {
		phone := fmt.Sprintf("+2126%08d", rng.IntN(100_000_000))
		if _, dup := phones[phone]; dup {
			continue
		}
		phones[phone] = struct{}{}

		city := pick(rng, cat.Cities)
		batch.Clients = append(batch.Clients, &clientdomain.Client{
			Name:    pick(rng, firstNames) + " " + pick(rng, lastNames),
			Phone:   phone,
			City:    city.Name,
			Address: fmt.Sprintf("%d %s", 1+rng.IntN(180), pick(rng, streets)),
			IsDemo:  true,
		})
	}

	start := now.Add(-settleWindow - spreadWindow)
	for i := 0; i < n; i++ {
		ci := rng.IntN(len(batch.Clients))
		client := batch.Clients[ci]
		createdAt := start.Add(time.Duration(rng.Int64N(int64(spreadWindow)))).Truncate(time.Second)

		order := &orderdomain.Order{
			ClientName:   client.Name,
			ClientPhone:  client.Phone,
			CityName:     client.City,
			Address:      client.Address,
			CurrencyCode: cat.Currency,
			ItemsTotal:   decimal.NewFromInt(100 + rng.Int64N(3900)).Div(decimal.NewFromInt(2)).Round(2),
			Notes:        pick(rng, orderNotes),
			IsDemo:       true,
			CreatedAt:    createdAt,
		}

		order.ShippingFee = decimal.Zero
		if city, ok := findCity(cat.Cities, client.City); ok {
			id := city.ID
			order.CityID = &id
			order.ShippingFee = city.DeliveryFee.Round(2)
		}
		if len(cat.Stores) > 0 {
			id := pick(rng, cat.Stores).ID
			order.StoreID = &id
		}
		var shipper *shippingcompanydomain.ShippingCompany
		if len(cat.Shippers) > 0 {
			s := pick(rng, cat.Shippers)
			shipper = &s
			order.ShippingCompanyID = &s.ID
		}
		order.Total = order.ItemsTotal.Add(order.ShippingFee)
		if len(cat.PaymentMethods) > 0 {
			method := pick(rng, cat.PaymentMethods)
			order.PaymentMethodID = &method.ID
			order.Total = order.Total.Add(method.Fee(order.ItemsTotal))
		}

		order.StatusHistory = history(rng, createdAt)
		order.Status = order.StatusHistory[len(order.StatusHistory)-1].Status
		order.UpdatedAt = order.StatusHistory[len(order.StatusHistory)-1].At
		if shipped(order.StatusHistory) {
			order.TrackingNumber = trackingNumber(rng, shipper)
		}

		batch.Orders = append(batch.Orders, order)
		batch.OrderClient = append(batch.OrderClient, ci)
	}
	return batch
}

// history walks the progression up to a drawn target status. Cancelled and
// returned orders leave the progression from a non-terminal step.
func history(rng *rand.Rand, createdAt time.Time) datatypes.JSONSlice[orderdomain.StatusChange] {
	progression := orderdomain.Progression
	last := len(progression) - 1

	var (
		steps []orderdomain.Status
		exit  orderdomain.Status
	)
	switch roll := rng.IntN(100); {
	case roll < 8:
		steps = progression[:1+rng.IntN(3)]
		exit = orderdomain.StatusCancelled
	case roll < 13:
		steps = progression[:4+rng.IntN(2)]
		exit = orderdomain.StatusReturned
	case roll < 55:
		steps = progression
	default:
		steps = progression[:1+rng.IntN(last)]
	}

	out := make(datatypes.JSONSlice[orderdomain.StatusChange], 0, len(steps)+1)
	at := createdAt
	for i, status := range steps {
		if i > 0 {
			at = at.Add(time.Duration(1+rng.IntN(24)) * time.Hour)
		}
		out = append(out, orderdomain.StatusChange{Status: status, At: at, By: "demo"})
	}
	if exit != "" {
		at = at.Add(time.Duration(1+rng.IntN(24)) * time.Hour)
		out = append(out, orderdomain.StatusChange{Status: exit, At: at, By: "demo"})
	}
	return out
}

func shipped(h []orderdomain.StatusChange) bool {
	for _, change := range h {
		if change.Status == orderdomain.StatusShipped {
			return true
		}
	}
	return false
}

func trackingNumber(rng *rand.Rand, shipper *shippingcompanydomain.ShippingCompany) string {
	prefix := "TRK"
	if shipper != nil && shipper.Code != "" {
		prefix = strings.ToUpper(strings.ReplaceAll(shipper.Code, "-", ""))
		if len(prefix) > 4 {
			prefix = prefix[:4]
		}
	}
	return fmt.Sprintf("%s%09d", prefix, rng.IntN(1_000_000_000))
}

func findCity(cities []citydomain.City, name string) (citydomain.City, bool) {
	for _, c := range cities {
		if c.Name == name {
			return c, true
		}
	}
	return citydomain.City{}, false
}

func pick[T any](rng *rand.Rand, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[rng.IntN(len(items))]
}
