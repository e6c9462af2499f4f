// Package pricing does the money arithmetic for carts and orders. All sums
// are carried out in decimal and converted to float64 only at the edge,
// so a total never drifts from the sum of its lines.
package pricing

import "github.com/shopspring/decimal"

// Default checkout rules, matching what the storefront client charges.
const (
	DefaultTaxRate       = 0.10
	DefaultShippingPrice = 500.0
)

// Line is one priced line item.
type Line struct {
	Price    float64
	Quantity int
}

// Rules are the tax and shipping rules applied to an order.
type Rules struct {
	TaxRate       float64 `yaml:"tax_rate"`
	ShippingPrice float64 `yaml:"shipping_price"`
}

// DefaultRules returns the rules the storefront client uses.
func DefaultRules() Rules {
	return Rules{TaxRate: DefaultTaxRate, ShippingPrice: DefaultShippingPrice}
}

// Quote is the full price breakdown of an order.
type Quote struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Subtotal returns Σ price×quantity over lines.
func Subtotal(lines []Line) float64 {
	return subtotal(lines).InexactFloat64()
}

// Quote prices lines under r. Tax is rounded to cents; an empty order is
// not charged for shipping.
func (r Rules) Quote(lines []Line) Quote {
	items := subtotal(lines)
	tax := items.Mul(decimal.NewFromFloat(r.TaxRate)).Round(2)
	shipping := decimal.NewFromFloat(r.ShippingPrice)
	if len(lines) == 0 {
		shipping = decimal.Zero
	}
	return Quote{
		ItemsPrice:    items.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TotalPrice:    items.Add(tax).Add(shipping).InexactFloat64(),
	}
}

// Sum adds amounts without float accumulation error.
func Sum(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum.InexactFloat64()
}
