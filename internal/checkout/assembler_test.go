package checkout_test

import (
	"testing"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddr = orders.Address{
	Street:     "456 User St",
	City:       "Springfield",
	PostalCode: "12345",
	Country:    "US",
}

func newAssembler() *checkout.Assembler {
	// flat 10.00 shipping, free over 100.00, 10% tax
	return &checkout.Assembler{
		Pricing: checkout.StandardPricing(
			decimal.RequireFromString("10.00"),
			decimal.RequireFromString("100.00"),
			decimal.RequireFromString("0.10"),
		),
	}
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	_, err := c.AddItem(catalog.Product{ID: "1", Name: "Widget", Price: decimal.RequireFromString("19.99"), Stock: 10}, 2)
	require.NoError(t, err)
	_, err = c.AddItem(catalog.Product{ID: "2", Name: "Gadget", Price: decimal.RequireFromString("49.99"), Stock: 10}, 1)
	require.NoError(t, err)
	return c
}

func TestBuildDraft(t *testing.T) {
	a := newAssembler()
	c := filledCart(t)

	d, err := a.BuildDraft(c, "u-1", "ext-1", testAddr, orders.PaymentPayPalOrCard)
	require.NoError(t, err)

	assert.Equal(t, "u-1", d.UserID)
	assert.Equal(t, "ext-1", d.ExternalID)
	assert.Equal(t, orders.PaymentPayPalOrCard, d.PaymentMethod)
	assert.Equal(t, testAddr, d.ShippingAddress)

	require.Len(t, d.Items, 2)
	assert.Equal(t, "89.97", d.ItemsPrice.StringFixed(2))
	assert.Equal(t, "10.00", d.ShippingPrice.StringFixed(2))
	assert.Equal(t, "9.00", d.TaxPrice.StringFixed(2)) // 10% of 89.97, cent-rounded
	assert.Equal(t, "108.97", d.TotalPrice.StringFixed(2))
}

func TestBuildDraftFreeShipping(t *testing.T) {
	a := newAssembler()
	c := cart.New()
	_, err := c.AddItem(catalog.Product{ID: "1", Name: "Big", Price: decimal.RequireFromString("150.00"), Stock: 5}, 1)
	require.NoError(t, err)

	d, err := a.BuildDraft(c, "u-1", "", testAddr, orders.PaymentCashOnDelivery)
	require.NoError(t, err)

	assert.True(t, d.ShippingPrice.IsZero())
	assert.NotEmpty(t, d.ExternalID, "missing external id gets generated")
	assert.Equal(t, "165.00", d.TotalPrice.StringFixed(2))
}

func TestBuildDraftValidation(t *testing.T) {
	a := newAssembler()

	tests := []struct {
		name    string
		cart    *cart.Cart
		addr    orders.Address
		method  orders.PaymentMethod
		wantErr error
	}{
		{
			name:    "empty cart",
			cart:    cart.New(),
			addr:    testAddr,
			method:  orders.PaymentPayPalOrCard,
			wantErr: checkout.ErrEmptyCart,
		},
		{
			name:    "blank city",
			cart:    filledCart(t),
			addr:    orders.Address{Street: "a", City: "  ", PostalCode: "b", Country: "c"},
			method:  orders.PaymentPayPalOrCard,
			wantErr: checkout.ErrMissingShipping,
		},
		{
			name:    "missing country",
			cart:    filledCart(t),
			addr:    orders.Address{Street: "a", City: "b", PostalCode: "c"},
			method:  orders.PaymentCashOnDelivery,
			wantErr: checkout.ErrMissingShipping,
		},
		{
			name:    "unknown payment method",
			cart:    filledCart(t),
			addr:    testAddr,
			method:  orders.PaymentMethod("IOU"),
			wantErr: checkout.ErrBadPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.BuildDraft(tt.cart, "u-1", "", tt.addr, tt.method)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildDraftIsDeepCopy(t *testing.T) {
	a := newAssembler()
	c := filledCart(t)

	d, err := a.BuildDraft(c, "u-1", "ext-1", testAddr, orders.PaymentPayPalOrCard)
	require.NoError(t, err)

	// mutating the cart after assembly must not touch the in-flight draft
	require.NoError(t, c.UpdateQuantity("1", 9))
	c.RemoveItem("2")

	require.Len(t, d.Items, 2)
	assert.Equal(t, 2, d.Items[0].Quantity)
	assert.Equal(t, "89.97", d.ItemsPrice.StringFixed(2))
}
