package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/shipping"
)

// Item is a line captured at order time; later catalog edits do not reach it.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// ShippingSnapshot is the address and delivery tier as of order time.
type ShippingSnapshot struct {
	address.Shipping
	ShippingOption shipping.OptionID `json:"shippingOption"`
	ShippingLabel  string            `json:"shippingLabel"`
	ShippingCost   decimal.Decimal   `json:"shippingCost"`
}

type Order struct {
	ID              string           `json:"id"`
	UserID          *string          `json:"user_id"`
	Status          Status           `json:"status"`
	Total           decimal.Decimal  `json:"total"`
	ShippingAddress ShippingSnapshot `json:"shipping_address"`
	Items           []Item           `json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Reference is the short id shown to customers.
func Reference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// Filter narrows admin listings. Q matches the order id, customer name or
// email; an empty Status matches all.
type Filter struct {
	Q      string
	Status Status
	Limit  int
	Offset int
}
