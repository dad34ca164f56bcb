package cart

import (
	"errors"
	"sort"
	"sync"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNotInCart       = errors.New("product not in cart")
)

// LineItem is one product entry with the price and stock snapshot taken when
// the item was added (or last refreshed). Catalog changes after that point do
// not leak into the cart.
type LineItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockSnapshot int             `json:"stock_snapshot"`
	ImageURL      string          `json:"image_url"`
}

type Totals struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is owned by a single session. The mutex is not for concurrent writers
// (there is exactly one per session) but so Totals never observes a
// half-applied merge.
type Cart struct {
	mu    sync.Mutex
	items map[string]LineItem
}

func New() *Cart {
	return &Cart{items: make(map[string]LineItem)}
}

// FromItems rebuilds a cart from persisted line items.
func FromItems(items []LineItem) *Cart {
	c := New()
	for _, it := range items {
		c.items[it.ProductID] = it
	}
	return c
}

// AddItem adds qty units of the product, merging into an existing line for
// the same product id. The line's stock snapshot is refreshed from the
// product. Quantities above the snapshot clamp to it; clamped reports that.
func (c *Cart) AddItem(p catalog.Product, qty int) (clamped bool, err error) {
	if p.Stock <= 0 {
		return false, ErrOutOfStock
	}
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	want := qty
	if existing, ok := c.items[p.ID]; ok {
		want = existing.Quantity + qty
	}
	if want > p.Stock {
		want = p.Stock
		clamped = true
	}

	c.items[p.ID] = LineItem{
		ProductID:     p.ID,
		Name:          p.Name,
		UnitPrice:     p.Price,
		Quantity:      want,
		StockSnapshot: p.Stock,
		ImageURL:      p.ImageURL,
	}
	return clamped, nil
}

// UpdateQuantity replaces a line's quantity. Out-of-range values leave the
// cart untouched; removal is RemoveItem's job, not quantity zero.
func (c *Cart) UpdateQuantity(productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[productID]
	if !ok {
		return ErrNotInCart
	}
	if qty < 1 || qty > it.StockSnapshot {
		return ErrInvalidQuantity
	}
	it.Quantity = qty
	c.items[productID] = it
	return nil
}

// RemoveItem is idempotent; removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, productID)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]LineItem)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a copy of the current line items, ordered by product id.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Totals recomputes from the current line items on every call. Derived
// state, never stored.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := Totals{Subtotal: decimal.Zero}
	for _, it := range c.items {
		t.ItemCount += it.Quantity
		t.Subtotal = t.Subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return t
}
