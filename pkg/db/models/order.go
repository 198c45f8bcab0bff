package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// Order is the aggregate root: items, history, logistics and after-sale rows are
// owned by it and never outlive it.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	FarmerID         uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalCents    money.Cents         `gorm:"column:subtotal_cents;not null"`
	DiscountCents    money.Cents         `gorm:"column:discount_cents;not null;default:0"`
	DeliveryFeeCents money.Cents         `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents       money.Cents         `gorm:"column:total_cents;not null"`
	ContactName      string              `gorm:"column:contact_name;not null"`
	ContactPhone     string              `gorm:"column:contact_phone;not null"`
	Address          string              `gorm:"column:address;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Note             *string             `gorm:"column:note"`
	CancelReason     *string             `gorm:"column:cancel_reason"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	Version          int                 `gorm:"column:version;not null;default:1"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History          []OrderStatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Logistics        *OrderLogistics     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	AfterSale        *AfterSale          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a line captured at order creation. It is never updated.
type OrderItem struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID   `gorm:"column:order_id;type:uuid;not null;index"`
	Position       int         `gorm:"column:position;not null"`
	ProductID      uuid.UUID   `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string      `gorm:"column:product_name;not null"`
	Thumbnail      *string     `gorm:"column:thumbnail"`
	Unit           string      `gorm:"column:unit;not null"`
	UnitPriceCents money.Cents `gorm:"column:unit_price_cents;not null"`
	Quantity       int         `gorm:"column:quantity;not null"`
	SubtotalCents  money.Cents `gorm:"column:subtotal_cents;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderStatusEvent is one append-only entry of the status audit trail.
type OrderStatusEvent struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_status_events_seq,priority:1"`
	Seq        int               `gorm:"column:seq;not null;uniqueIndex:ux_order_status_events_seq,priority:2"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Note       *string           `gorm:"column:note"`
	OccurredAt time.Time         `gorm:"column:occurred_at;not null"`
}

func (e *OrderStatusEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// OrderLogistics is the shipment record of an order.
type OrderLogistics struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_logistics_order"`
	Carrier        string                `gorm:"column:carrier;not null"`
	TrackingNumber string                `gorm:"column:tracking_number;not null"`
	ContactPhone   *string               `gorm:"column:contact_phone"`
	Checkpoints    []LogisticsCheckpoint `gorm:"foreignKey:OrderID;references:OrderID"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (l *OrderLogistics) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// LogisticsCheckpoint is an append-only tracking event.
type LogisticsCheckpoint struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_logistics_checkpoints_seq,priority:1"`
	Seq         int                  `gorm:"column:seq;not null;uniqueIndex:ux_logistics_checkpoints_seq,priority:2"`
	Kind        enums.CheckpointKind `gorm:"column:kind;type:text;not null;default:'other'"`
	Status      string               `gorm:"column:status;not null"`
	Description *string              `gorm:"column:description"`
	Location    *string              `gorm:"column:location"`
	OccurredAt  time.Time            `gorm:"column:occurred_at;not null"`
}

func (c *LogisticsCheckpoint) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// AfterSale is the refund/return/exchange request attached to an order.
type AfterSale struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_after_sales_order"`
	Type              enums.AfterSaleType   `gorm:"column:type;type:text;not null"`
	Reason            string                `gorm:"column:reason;not null"`
	Description       *string               `gorm:"column:description"`
	Attachments       []string              `gorm:"column:attachments;type:jsonb;serializer:json"`
	Status            enums.AfterSaleStatus `gorm:"column:status;type:text;not null"`
	AppliedAt         time.Time             `gorm:"column:applied_at;not null"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime:false"`
	ResolutionNote    *string               `gorm:"column:resolution_note"`
	RefundAmountCents *money.Cents          `gorm:"column:refund_amount_cents"`
	RefundMethod      *enums.RefundMethod   `gorm:"column:refund_method"`
	RefundCompletedAt *time.Time            `gorm:"column:refund_completed_at"`
	RefundReferenceID *string               `gorm:"column:refund_reference_id"`
}

func (a *AfterSale) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// HasRefund reports whether refund details were recorded.
func (a *AfterSale) HasRefund() bool {
	return a != nil && a.RefundAmountCents != nil
}

func (OrderLogistics) TableName() string { return "order_logistics" }

func (AfterSale) TableName() string { return "order_after_sales" }
