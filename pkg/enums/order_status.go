package enums

import "slices"

// OrderStatus is the lifecycle stage of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusAfterSale  OrderStatus = "after_sale"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusAfterSale,
}

// String returns the persisted token.
func (s OrderStatus) String() string {
	return string(s)
}

// Wire returns the token used in API payloads (after-sale).
func (s OrderStatus) Wire() string {
	return toWire(string(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return slices.Contains(validOrderStatuses, s)
}

// MarshalText encodes the wire token.
func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.Wire()), nil
}

// UnmarshalText accepts either the wire or the persisted token.
func (s *OrderStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseOrderStatus converts a wire or persisted token into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parseEnum(validOrderStatuses, "order status", value)
}
