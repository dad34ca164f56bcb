package cart_test

import (
	"testing"

	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, price string, stock int) catalog.Product {
	return catalog.Product{
		ID:    id,
		Name:  gofakeit.ProductName(),
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func TestAddItem(t *testing.T) {
	tests := []struct {
		name        string
		stock       int
		adds        []int
		wantQty     int
		wantClamped bool
		wantErr     error
	}{
		{name: "single add", stock: 10, adds: []int{2}, wantQty: 2},
		{name: "merge same product", stock: 5, adds: []int{2, 3}, wantQty: 5},
		{name: "merge clamps at stock", stock: 4, adds: []int{2, 3}, wantQty: 4, wantClamped: true},
		{name: "request above stock clamps", stock: 3, adds: []int{7}, wantQty: 3, wantClamped: true},
		{name: "zero quantity bumps to one", stock: 10, adds: []int{0}, wantQty: 1},
		{name: "out of stock", stock: 0, adds: []int{1}, wantErr: cart.ErrOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cart.New()
			p := product("p1", "9.99", tt.stock)

			var clamped bool
			var err error
			for _, qty := range tt.adds {
				clamped, err = c.AddItem(p, qty)
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, c.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClamped, clamped)

			items := c.Items()
			require.Len(t, items, 1, "same product must merge into one line")
			assert.Equal(t, tt.wantQty, items[0].Quantity)
			assert.Equal(t, tt.stock, items[0].StockSnapshot)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	c := cart.New()
	_, err := c.AddItem(product("p1", "5.00", 8), 2)
	require.NoError(t, err)

	tests := []struct {
		name      string
		productID string
		qty       int
		wantErr   error
	}{
		{name: "valid", productID: "p1", qty: 8},
		{name: "zero is invalid", productID: "p1", qty: 0, wantErr: cart.ErrInvalidQuantity},
		{name: "negative is invalid", productID: "p1", qty: -3, wantErr: cart.ErrInvalidQuantity},
		{name: "above stock snapshot", productID: "p1", qty: 9, wantErr: cart.ErrInvalidQuantity},
		{name: "absent product", productID: "nope", qty: 1, wantErr: cart.ErrNotInCart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.Items()

			err := c.UpdateQuantity(tt.productID, tt.qty)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, c.Items(), "failed update must not touch the cart")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.qty, c.Items()[0].Quantity)
		})
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	c := cart.New()
	_, err := c.AddItem(product("p1", "5.00", 3), 1)
	require.NoError(t, err)

	c.RemoveItem("p1")
	assert.Zero(t, c.Len())

	// absent id is a no-op, not an error
	c.RemoveItem("p1")
	c.RemoveItem("never-added")
	assert.Zero(t, c.Len())
}

func TestTotalsRecomputed(t *testing.T) {
	c := cart.New()

	_, err := c.AddItem(product("1", "19.99", 10), 2)
	require.NoError(t, err)
	_, err = c.AddItem(product("2", "49.99", 10), 1)
	require.NoError(t, err)

	got := c.Totals()
	assert.Equal(t, 3, got.ItemCount)
	assert.Equal(t, "89.97", got.Subtotal.StringFixed(2))

	// every mutation must be reflected on the next call, nothing cached
	require.NoError(t, c.UpdateQuantity("1", 1))
	assert.Equal(t, "69.98", c.Totals().Subtotal.StringFixed(2))

	c.RemoveItem("2")
	got = c.Totals()
	assert.Equal(t, 1, got.ItemCount)
	assert.Equal(t, "19.99", got.Subtotal.StringFixed(2))

	c.Clear()
	got = c.Totals()
	assert.Zero(t, got.ItemCount)
	assert.True(t, got.Subtotal.IsZero())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := cart.New()
	_, err := c.AddItem(product("p1", "10.00", 5), 2)
	require.NoError(t, err)

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestSnapshotSurvivesCatalogChange(t *testing.T) {
	p := product("p1", "10.00", 5)
	c := cart.New()
	_, err := c.AddItem(p, 2)
	require.NoError(t, err)

	// later catalog price change, cart line keeps its snapshot
	p.Price = decimal.RequireFromString("99.99")

	assert.Equal(t, "20.00", c.Totals().Subtotal.StringFixed(2))
}

func TestFromItemsRoundTrip(t *testing.T) {
	c := cart.New()
	_, err := c.AddItem(product("a", "1.50", 4), 2)
	require.NoError(t, err)
	_, err = c.AddItem(product("b", "2.25", 9), 3)
	require.NoError(t, err)

	restored := cart.FromItems(c.Items())
	assert.Equal(t, c.Items(), restored.Items())
	assert.Equal(t, c.Totals(), restored.Totals())
}
