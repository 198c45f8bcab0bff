package orders

import (
	"strings"
	"time"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

// Default history notes.
const (
	NoteOrderCreated        = "订单已创建"
	NoteCustomerCancelled   = "用户取消订单"
	NoteAfterSaleAutoClosed = "订单已完成，售后自动关闭"
	NoteDeliveredCompleted  = "物流已签收，订单自动完成"
	NoteReceiptConfirmed    = "用户确认收货"
	NoteRefundCompleted     = "退款完成，订单已完成"
	NoteAfterSaleRejected   = "售后申请被驳回"
)

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusCompleted, enums.OrderStatusAfterSale},
	enums.OrderStatusCompleted:  {enums.OrderStatusAfterSale},
	enums.OrderStatusCancelled:  nil,
	enums.OrderStatusAfterSale:  {enums.OrderStatusCompleted},
}

// CanTransition reports whether the table allows from -> to. A status never
// transitions to itself.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	next := allowedTransitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// guard runs before the table lookup and may reject a command outright.
type guard func(o *models.Order) error

func cancellable(o *models.Order) error {
	switch o.Status {
	case enums.OrderStatusPending, enums.OrderStatusProcessing:
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidStateForCancel, "order in status %s can no longer be cancelled", o.Status.Wire()).
		WithDetails(map[string]any{"status": o.Status.Wire()})
}

// Transition moves the order to the requested status.
func Transition(o *models.Order, to enums.OrderStatus, note *string, now time.Time) (*Changes, error) {
	return transition(o, to, note, now, nil)
}

// Cancel cancels a pending or processing order. The note becomes the
// cancellation reason.
func Cancel(o *models.Order, reason *string, now time.Time) (*Changes, error) {
	return transition(o, enums.OrderStatusCancelled, reason, now, cancellable)
}

// ConfirmReceipt completes a shipped order on behalf of the customer.
func ConfirmReceipt(o *models.Order, now time.Time) (*Changes, error) {
	note := NoteReceiptConfirmed
	return transition(o, enums.OrderStatusCompleted, &note, now, nil)
}

func transition(o *models.Order, to enums.OrderStatus, note *string, now time.Time, check guard) (*Changes, error) {
	if !to.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", to)
	}
	if check != nil {
		if err := check(o); err != nil {
			return nil, err
		}
	}
	changes := &Changes{}
	if o.Status == to {
		return changes, nil
	}
	if !CanTransition(o.Status, to) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot change order status from %s to %s", o.Status.Wire(), to.Wire()).
			WithDetails(map[string]any{"from": o.Status.Wire(), "to": to.Wire()})
	}

	note = normalizeNote(note)
	changes.setStatus(o, to, note, now)

	switch to {
	case enums.OrderStatusCancelled:
		reason := NoteCustomerCancelled
		if note != nil {
			reason = *note
		}
		cancelledAt := now
		o.CancelReason = &reason
		o.CancelledAt = &cancelledAt
	case enums.OrderStatusCompleted:
		if o.AfterSale != nil && o.AfterSale.Status != enums.AfterSaleStatusResolved {
			resolution := NoteAfterSaleAutoClosed
			if note != nil {
				resolution = *note
			}
			o.AfterSale.Status = enums.AfterSaleStatusResolved
			o.AfterSale.UpdatedAt = now
			o.AfterSale.ResolutionNote = &resolution
			changes.AfterSaleChanged = true
		}
	}
	return changes, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
