package checkout

import (
	"github.com/ariefcatur/go-storefront/internal/money"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/shopspring/decimal"
)

// PricingPolicy computes the shipping fee and tax for a subtotal shipped to
// an address. It is injected into the assembler; the storefront itself does
// not own pricing rules.
type PricingPolicy func(subtotal decimal.Decimal, addr orders.Address) (shipping, tax decimal.Decimal)

// StandardPricing: flat shipping fee, waived at or above a threshold, plus a
// fractional tax rate on the subtotal.
func StandardPricing(flatFee, freeOver, taxRate decimal.Decimal) PricingPolicy {
	return func(subtotal decimal.Decimal, _ orders.Address) (decimal.Decimal, decimal.Decimal) {
		shipping := flatFee
		if subtotal.GreaterThanOrEqual(freeOver) {
			shipping = decimal.Zero
		}
		tax := money.Round(subtotal.Mul(taxRate))
		return shipping, tax
	}
}
