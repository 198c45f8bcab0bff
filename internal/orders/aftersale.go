package orders

import (
	"strings"
	"time"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// AfterSaleApplication is the customer's request for service on a delivered order.
type AfterSaleApplication struct {
	Type        enums.AfterSaleType
	Reason      string
	Description *string
	Attachments []string
}

// RefundInput records money returned to the customer.
type RefundInput struct {
	Amount      money.Cents
	Method      enums.RefundMethod
	ReferenceID *string
}

// AfterSaleUpdate moves an after-sale request to its next sub-state.
type AfterSaleUpdate struct {
	Status enums.AfterSaleStatus
	Note   *string
	Refund *RefundInput
}

var allowedAfterSaleTransitions = map[enums.AfterSaleStatus][]enums.AfterSaleStatus{
	enums.AfterSaleStatusApplied:    {enums.AfterSaleStatusProcessing, enums.AfterSaleStatusResolved, enums.AfterSaleStatusRejected},
	enums.AfterSaleStatusProcessing: {enums.AfterSaleStatusResolved, enums.AfterSaleStatusRejected},
}

// CanTransitionAfterSale reports whether an after-sale request may move from -> to.
func CanTransitionAfterSale(from, to enums.AfterSaleStatus) bool {
	for _, next := range allowedAfterSaleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// afterSaleRule couples the after-sale sub-state to the order status. Rules are
// policy and do not consult the order transition table.
type afterSaleRule struct {
	name   string
	when   func(o *models.Order) bool
	target enums.OrderStatus
	note   string
}

var afterSaleRules = []afterSaleRule{
	{
		name: "refund_resolved_completes_order",
		when: func(o *models.Order) bool {
			return o.AfterSale.Status == enums.AfterSaleStatusResolved && o.AfterSale.Type == enums.AfterSaleTypeRefund
		},
		target: enums.OrderStatusCompleted,
		note:   NoteRefundCompleted,
	},
	{
		name: "rejected_returns_open_order_to_processing",
		when: func(o *models.Order) bool {
			if o.AfterSale.Status != enums.AfterSaleStatusRejected {
				return false
			}
			return o.Status == enums.OrderStatusPending || o.Status == enums.OrderStatusProcessing
		},
		target: enums.OrderStatusProcessing,
		note:   NoteAfterSaleRejected,
	},
}

// ApplyAfterSale opens an after-sale request and moves the order to after-sale.
func ApplyAfterSale(o *models.Order, in AfterSaleApplication, now time.Time) (*Changes, error) {
	if o.Status != enums.OrderStatusShipped && o.Status != enums.OrderStatusCompleted {
		return nil, pkgerrors.Newf(pkgerrors.CodeAfterSaleNotEligible, "orders in status %s are not eligible for after-sale service", o.Status.Wire()).
			WithDetails(map[string]any{"status": o.Status.Wire()})
	}
	if o.AfterSale != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAfterSaleNotEligible, "an after-sale request already exists for this order")
	}
	if !in.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown after-sale type %q", in.Type)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "after-sale reason is required")
	}

	attachments := make([]string, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		if trimmed := strings.TrimSpace(a); trimmed != "" {
			attachments = append(attachments, trimmed)
		}
	}
	o.AfterSale = &models.AfterSale{
		OrderID:     o.ID,
		Type:        in.Type,
		Reason:      reason,
		Description: normalizeNote(in.Description),
		Attachments: attachments,
		Status:      enums.AfterSaleStatusApplied,
		AppliedAt:   now,
		UpdatedAt:   now,
	}

	changes, err := transition(o, enums.OrderStatusAfterSale, &reason, now, nil)
	if err != nil {
		o.AfterSale = nil
		return nil, err
	}
	changes.AfterSaleChanged = true
	return changes, nil
}

// UpdateAfterSale advances the after-sale request, then evaluates the coupling rules.
func UpdateAfterSale(o *models.Order, in AfterSaleUpdate, now time.Time) (*Changes, error) {
	if o.AfterSale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "after-sale request not found")
	}
	if !in.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown after-sale status %q", in.Status)
	}
	if in.Refund != nil {
		if in.Status != enums.AfterSaleStatusResolved {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund details can only be recorded when resolving")
		}
		if in.Refund.Amount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be greater than zero").
				WithDetails(map[string]any{"field": "refund.amount"})
		}
		if in.Refund.Amount > o.TotalCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total").
				WithDetails(map[string]any{"field": "refund.amount", "max": o.TotalCents})
		}
		if !in.Refund.Method.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown refund method %q", in.Refund.Method)
		}
	}
	from := o.AfterSale.Status
	if !CanTransitionAfterSale(from, in.Status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAfterSaleTransition, "cannot change after-sale status from %s to %s", from, in.Status).
			WithDetails(map[string]any{"from": from, "to": in.Status})
	}

	note := normalizeNote(in.Note)
	o.AfterSale.Status = in.Status
	o.AfterSale.UpdatedAt = now
	if note != nil {
		o.AfterSale.ResolutionNote = note
	}
	if in.Refund != nil {
		amount := in.Refund.Amount
		method := in.Refund.Method
		completedAt := now
		o.AfterSale.RefundAmountCents = &amount
		o.AfterSale.RefundMethod = &method
		o.AfterSale.RefundCompletedAt = &completedAt
		o.AfterSale.RefundReferenceID = normalizeNote(in.Refund.ReferenceID)
	}

	changes := &Changes{AfterSaleChanged: true}
	for _, rule := range afterSaleRules {
		if !rule.when(o) || o.Status == rule.target {
			continue
		}
		ruleNote := rule.note
		if note != nil {
			ruleNote = *note
		}
		changes.setStatus(o, rule.target, &ruleNote, now)
	}
	return changes, nil
}
