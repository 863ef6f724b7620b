package handlers

import (
	"github.com/shopspring/decimal"

	"backend/internal/models"
)

// Pricing constants for every cart: 18% GST on the subtotal plus a flat
// delivery fee. An empty cart prices to zero across the board.
var (
	gstRate     = decimal.NewFromFloat(0.18)
	deliveryFee = decimal.NewFromInt(40)
)

// PricedLine pairs a cart line with the product it references at its current
// unit price.
type PricedLine struct {
	Line    models.CartLine
	Product models.Product
}

// CartTotals is the server-computed price breakdown returned with every cart
// fetch and snapshotted into the order at payment-intent creation.
type CartTotals struct {
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// ComputeCartTotals prices a cart: subtotal = Σ unit price × quantity,
// tax = subtotal × 18%, plus the flat delivery fee. Every figure is rounded
// to 2 decimals; total = subtotal + tax + delivery exactly.
func ComputeCartTotals(lines []PricedLine) CartTotals {
	if len(lines) == 0 {
		return CartTotals{}
	}

	subtotal := decimal.Zero
	for _, priced := range lines {
		unit := decimal.NewFromFloat(priced.Product.Price)
		qty := decimal.NewFromInt(int64(priced.Line.Quantity))
		subtotal = subtotal.Add(unit.Mul(qty))
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(gstRate).Round(2)
	total := subtotal.Add(tax).Add(deliveryFee).Round(2)

	return CartTotals{
		Subtotal:    subtotal.InexactFloat64(),
		Tax:         tax.InexactFloat64(),
		DeliveryFee: deliveryFee.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}

// stripeAmount converts a rupee total to paise for the payment processor.
func stripeAmount(total float64) int64 {
	return decimal.NewFromFloat(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
