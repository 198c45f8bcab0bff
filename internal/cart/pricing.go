package cart

import "github.com/farmfresh/farmfresh-backend/pkg/money"

// Pricing constants shared by the cart summary and order creation.
const (
	DiscountThreshold money.Cents = 20000
	DiscountAmount    money.Cents = 2000
	DeliveryFee       money.Cents = 800
)

// Line is one priced selection.
type Line struct {
	UnitPrice money.Cents
	Quantity  int
}

// Summary is the money breakdown for a set of selected lines.
type Summary struct {
	Subtotal      money.Cents `json:"subtotal"`
	Discount      money.Cents `json:"discount"`
	DeliveryFee   money.Cents `json:"deliveryFee"`
	Total         money.Cents `json:"total"`
	SelectedCount int         `json:"selectedCount"`
}

// Quote prices the given lines. An empty selection costs nothing, delivery
// included.
func Quote(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		s.Subtotal += l.UnitPrice.Times(l.Quantity)
		s.SelectedCount++
	}
	if s.SelectedCount == 0 {
		return s
	}
	if s.Subtotal >= DiscountThreshold {
		s.Discount = DiscountAmount
	}
	s.DeliveryFee = DeliveryFee
	s.Total = s.Subtotal - s.Discount + s.DeliveryFee
	return s
}
