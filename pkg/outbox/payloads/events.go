package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// OrderCreatedEvent is emitted when a cart is converted into an order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID   `json:"orderId"`
	CustomerID uuid.UUID   `json:"customerId"`
	FarmerID   uuid.UUID   `json:"farmerId"`
	Total      money.Cents `json:"total"`
	ItemCount  int         `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted on every order status change, including the
// automatic ones (delivery checkpoint, after-sale rules).
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	CustomerID uuid.UUID         `json:"customerId"`
	FarmerID   uuid.UUID         `json:"farmerId"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Note       *string           `json:"note,omitempty"`
	ChangedAt  time.Time         `json:"changedAt"`
}

// OrderLogisticsUpdatedEvent covers both shipment record edits and new checkpoints.
type OrderLogisticsUpdatedEvent struct {
	OrderID        uuid.UUID             `json:"orderId"`
	Carrier        string                `json:"carrier"`
	TrackingNumber string                `json:"trackingNumber"`
	CheckpointKind *enums.CheckpointKind `json:"checkpointKind,omitempty"`
	CheckpointText *string               `json:"checkpointStatus,omitempty"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// OrderAfterSaleUpdatedEvent is emitted when an after-sale request is created or
// changes sub-state.
type OrderAfterSaleUpdatedEvent struct {
	OrderID      uuid.UUID             `json:"orderId"`
	Type         enums.AfterSaleType   `json:"type"`
	Status       enums.AfterSaleStatus `json:"status"`
	RefundAmount *money.Cents          `json:"refundAmount,omitempty"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}
