package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentPayPalOrCard   PaymentMethod = "PAYPAL_OR_CARD"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentPayPalOrCard || m == PaymentCashOnDelivery
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem is an immutable snapshot of a cart line at placement time.
// Catalog price changes never retroactively affect a placed order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

// PaymentResult is the opaque reference handed back by the external payment
// collaborator. Nothing here is interpreted beyond storage and display.
type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
}

type Order struct {
	ID              string        `json:"id"`
	ExternalID      string        `json:"external_id"`
	UserID          string        `json:"user_id"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`

	ItemsPrice    decimal.Decimal `json:"items_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TaxPrice      decimal.Decimal `json:"tax_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`

	IsPaid      bool           `json:"is_paid"`
	PaidAt      *time.Time     `json:"paid_at,omitempty"`
	Payment     *PaymentResult `json:"payment,omitempty"`
	IsDelivered bool           `json:"is_delivered"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the order-creation request the checkout assembler produces: a
// deep copy of the cart plus priced totals. Once built it is never mutated.
type Draft struct {
	ExternalID      string          `json:"external_id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}
