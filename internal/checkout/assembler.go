package checkout

import (
	"errors"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/money"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to check out")
	ErrMissingShipping  = errors.New("shipping address is incomplete")
	ErrBadPaymentMethod = errors.New("unknown payment method")
)

// Assembler turns a cart snapshot plus shipping and payment selections into
// an order draft. Stateless; safe to share.
type Assembler struct {
	Pricing PricingPolicy
}

// BuildDraft deep-copies the cart's current line items so later cart
// mutation cannot affect an in-flight submission. externalID keys
// idempotent creation; empty means this submission is not a retry and gets
// a fresh id.
func (a *Assembler) BuildDraft(c *cart.Cart, userID, externalID string, addr orders.Address, method orders.PaymentMethod) (orders.Draft, error) {
	items := c.Items()
	if len(items) == 0 {
		return orders.Draft{}, ErrEmptyCart
	}
	if blank(addr.Street) || blank(addr.City) || blank(addr.PostalCode) || blank(addr.Country) {
		return orders.Draft{}, ErrMissingShipping
	}
	if !method.Valid() {
		return orders.Draft{}, ErrBadPaymentMethod
	}
	if externalID == "" {
		externalID = uuid.NewString()
	}

	snapshot := make([]orders.OrderItem, 0, len(items))
	for _, it := range items {
		snapshot = append(snapshot, orders.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}

	subtotal := c.Totals().Subtotal
	shipping, tax := a.Pricing(subtotal, addr)

	return orders.Draft{
		ExternalID:      externalID,
		UserID:          userID,
		Items:           snapshot,
		ShippingAddress: addr,
		PaymentMethod:   method,
		ItemsPrice:      money.Round(subtotal),
		ShippingPrice:   money.Round(shipping),
		TaxPrice:        money.Round(tax),
		TotalPrice:      money.Round(subtotal.Add(shipping).Add(tax)),
	}, nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
