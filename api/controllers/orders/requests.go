package orders

import (
	"strings"

	"github.com/google/uuid"

	internalorders "github.com/farmfresh/farmfresh-backend/internal/orders"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// createOrderRequest places an order from the selected cart lines. Either
// addressId or the three contact fields must be present.
type createOrderRequest struct {
	AddressID     *uuid.UUID          `json:"addressId,omitempty"`
	ContactName   string              `json:"contactName" validate:"required_without=AddressID,max=50"`
	ContactPhone  string              `json:"contactPhone" validate:"required_without=AddressID,max=20"`
	Address       string              `json:"address" validate:"required_without=AddressID,max=300"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	Note          *string             `json:"note,omitempty" validate:"omitempty,max=200"`
}

func (r createOrderRequest) input() internalorders.CreateOrderInput {
	return internalorders.CreateOrderInput{
		AddressID:     r.AddressID,
		ContactName:   r.ContactName,
		ContactPhone:  r.ContactPhone,
		Address:       r.Address,
		PaymentMethod: r.PaymentMethod,
		Note:          r.Note,
	}
}

type updateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
	Note   *string           `json:"note,omitempty" validate:"omitempty,max=200"`
}

type cancelRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

type logisticsRequest struct {
	Carrier        string  `json:"carrier" validate:"required,max=50"`
	TrackingNumber string  `json:"trackingNumber" validate:"required,max=64"`
	ContactPhone   *string `json:"contactPhone,omitempty" validate:"omitempty,max=20"`
}

// checkpointRequest may omit kind; it is then inferred from the status label.
type checkpointRequest struct {
	Kind        enums.CheckpointKind `json:"kind,omitempty"`
	Status      string               `json:"status" validate:"required,max=50"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=200"`
	Location    *string              `json:"location,omitempty" validate:"omitempty,max=100"`
}

func (c checkpointRequest) kind() enums.CheckpointKind {
	if c.Kind != "" {
		return c.Kind
	}
	return enums.CheckpointKindFromLabel(strings.TrimSpace(c.Status))
}

type afterSaleApplyRequest struct {
	Type        enums.AfterSaleType `json:"type" validate:"required"`
	Reason      string              `json:"reason" validate:"required,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=1000"`
	Attachments []string            `json:"attachments,omitempty" validate:"max=9,dive,url"`
}

type refundRequest struct {
	Amount      money.Cents        `json:"amount" validate:"gt=0"`
	Method      enums.RefundMethod `json:"method" validate:"required"`
	ReferenceID *string            `json:"referenceId,omitempty" validate:"omitempty,max=64"`
}

type afterSaleUpdateRequest struct {
	Status enums.AfterSaleStatus `json:"status" validate:"required"`
	Note   *string               `json:"note,omitempty" validate:"omitempty,max=500"`
	Refund *refundRequest        `json:"refund,omitempty"`
}

func (r afterSaleUpdateRequest) input() internalorders.AfterSaleUpdate {
	in := internalorders.AfterSaleUpdate{Status: r.Status, Note: r.Note}
	if r.Refund != nil {
		in.Refund = &internalorders.RefundInput{
			Amount:      r.Refund.Amount,
			Method:      r.Refund.Method,
			ReferenceID: r.Refund.ReferenceID,
		}
	}
	return in
}
