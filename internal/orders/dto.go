package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// ListFilter narrows the order list.
type ListFilter struct {
	Status *enums.OrderStatus
}

// CreateOrderInput carries checkout details. Contact fields are taken from
// AddressID when it is set.
type CreateOrderInput struct {
	AddressID     *uuid.UUID
	ContactName   string
	ContactPhone  string
	Address       string
	PaymentMethod enums.PaymentMethod
	Note          *string
}

type OrderItemDTO struct {
	ProductID uuid.UUID   `json:"productId"`
	Name      string      `json:"name"`
	Thumbnail *string     `json:"thumbnail,omitempty"`
	Unit      string      `json:"unit"`
	UnitPrice money.Cents `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	Subtotal  money.Cents `json:"subtotal"`
}

type StatusEventDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Note      *string           `json:"note,omitempty"`
}

type CheckpointDTO struct {
	Kind        enums.CheckpointKind `json:"kind"`
	Status      string               `json:"status"`
	Description *string              `json:"description,omitempty"`
	Location    *string              `json:"location,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type LogisticsDTO struct {
	Carrier        string          `json:"carrier"`
	TrackingNumber string          `json:"trackingNumber"`
	ContactPhone   *string         `json:"contactPhone,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Checkpoints    []CheckpointDTO `json:"checkpoints"`
}

type CancellationDTO struct {
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
}

type RefundDTO struct {
	Amount      money.Cents        `json:"amount"`
	Method      enums.RefundMethod `json:"method"`
	CompletedAt time.Time          `json:"completedAt"`
	ReferenceID *string            `json:"referenceId,omitempty"`
}

type AfterSaleDTO struct {
	Type           enums.AfterSaleType   `json:"type"`
	Reason         string                `json:"reason"`
	Description    *string               `json:"description,omitempty"`
	Attachments    []string              `json:"attachments"`
	Status         enums.AfterSaleStatus `json:"status"`
	AppliedAt      time.Time             `json:"appliedAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	ResolutionNote *string               `json:"resolutionNote,omitempty"`
	Refund         *RefundDTO            `json:"refund,omitempty"`
}

// OrderDTO is the full order as returned by the API.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customerId"`
	FarmerID      uuid.UUID           `json:"farmerId"`
	Status        enums.OrderStatus   `json:"status"`
	Subtotal      money.Cents         `json:"subtotal"`
	Discount      money.Cents         `json:"discount"`
	DeliveryFee   money.Cents         `json:"deliveryFee"`
	Total         money.Cents         `json:"total"`
	ContactName   string              `json:"contactName"`
	ContactPhone  string              `json:"contactPhone"`
	Address       string              `json:"address"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Note          *string             `json:"note,omitempty"`
	Items         []OrderItemDTO      `json:"items"`
	StatusHistory []StatusEventDTO    `json:"statusHistory"`
	Logistics     *LogisticsDTO       `json:"logistics,omitempty"`
	Cancellation  *CancellationDTO    `json:"cancellation,omitempty"`
	AfterSale     *AfterSaleDTO       `json:"afterSale,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// OrderSummaryDTO is the list view of an order.
type OrderSummaryDTO struct {
	ID           uuid.UUID         `json:"id"`
	FarmerID     uuid.UUID         `json:"farmerId"`
	CustomerID   uuid.UUID         `json:"customerId"`
	Status       enums.OrderStatus `json:"status"`
	Total        money.Cents       `json:"total"`
	ItemCount    int               `json:"itemCount"`
	Thumbnail    *string           `json:"thumbnail,omitempty"`
	FirstItem    string            `json:"firstItem"`
	CreatedAt    time.Time         `json:"createdAt"`
	HasAfterSale bool              `json:"hasAfterSale"`
}

func toItemDTO(item models.OrderItem, _ int) OrderItemDTO {
	return OrderItemDTO{
		ProductID: item.ProductID,
		Name:      item.ProductName,
		Thumbnail: item.Thumbnail,
		Unit:      item.Unit,
		UnitPrice: item.UnitPriceCents,
		Quantity:  item.Quantity,
		Subtotal:  item.SubtotalCents,
	}
}

func toStatusEventDTO(event models.OrderStatusEvent, _ int) StatusEventDTO {
	return StatusEventDTO{Status: event.Status, Timestamp: event.OccurredAt, Note: event.Note}
}

func toCheckpointDTO(cp models.LogisticsCheckpoint, _ int) CheckpointDTO {
	return CheckpointDTO{
		Kind:        cp.Kind,
		Status:      cp.Status,
		Description: cp.Description,
		Location:    cp.Location,
		Timestamp:   cp.OccurredAt,
	}
}

// ToOrderDTO maps the aggregate to its API shape.
func ToOrderDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		FarmerID:      o.FarmerID,
		Status:        o.Status,
		Subtotal:      o.SubtotalCents,
		Discount:      o.DiscountCents,
		DeliveryFee:   o.DeliveryFeeCents,
		Total:         o.TotalCents,
		ContactName:   o.ContactName,
		ContactPhone:  o.ContactPhone,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Note:          o.Note,
		Items:         lo.Map(o.Items, toItemDTO),
		StatusHistory: lo.Map(o.History, toStatusEventDTO),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Logistics != nil {
		dto.Logistics = &LogisticsDTO{
			Carrier:        o.Logistics.Carrier,
			TrackingNumber: o.Logistics.TrackingNumber,
			ContactPhone:   o.Logistics.ContactPhone,
			UpdatedAt:      o.Logistics.UpdatedAt,
			Checkpoints:    lo.Map(o.Logistics.Checkpoints, toCheckpointDTO),
		}
	}
	if o.CancelReason != nil && o.CancelledAt != nil {
		dto.Cancellation = &CancellationDTO{Reason: *o.CancelReason, CancelledAt: *o.CancelledAt}
	}
	if as := o.AfterSale; as != nil {
		dto.AfterSale = &AfterSaleDTO{
			Type:           as.Type,
			Reason:         as.Reason,
			Description:    as.Description,
			Attachments:    lo.Ternary(as.Attachments == nil, []string{}, as.Attachments),
			Status:         as.Status,
			AppliedAt:      as.AppliedAt,
			UpdatedAt:      as.UpdatedAt,
			ResolutionNote: as.ResolutionNote,
		}
		if as.HasRefund() {
			refund := &RefundDTO{Amount: *as.RefundAmountCents, ReferenceID: as.RefundReferenceID}
			if as.RefundMethod != nil {
				refund.Method = *as.RefundMethod
			}
			if as.RefundCompletedAt != nil {
				refund.CompletedAt = *as.RefundCompletedAt
			}
			dto.AfterSale.Refund = refund
		}
	}
	return dto
}

// ToOrderSummaryDTO maps an order with its items preloaded to the list view.
func ToOrderSummaryDTO(o models.Order) OrderSummaryDTO {
	summary := OrderSummaryDTO{
		ID:           o.ID,
		FarmerID:     o.FarmerID,
		CustomerID:   o.CustomerID,
		Status:       o.Status,
		Total:        o.TotalCents,
		CreatedAt:    o.CreatedAt,
		HasAfterSale: o.AfterSale != nil,
	}
	for _, item := range o.Items {
		summary.ItemCount += item.Quantity
	}
	if len(o.Items) > 0 {
		summary.FirstItem = o.Items[0].ProductName
		summary.Thumbnail = o.Items[0].Thumbnail
	}
	return summary
}
