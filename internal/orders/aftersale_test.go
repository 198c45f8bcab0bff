package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

func appliedOrder(t *testing.T, kind enums.AfterSaleType) *models.Order {
	t.Helper()
	order := newTestOrder(enums.OrderStatusShipped)
	_, err := ApplyAfterSale(order, AfterSaleApplication{
		Type:        kind,
		Reason:      "水果磕碰",
		Attachments: []string{"https://cdn.example.com/a.jpg", "  "},
	}, testNow)
	require.NoError(t, err)
	return order
}

func TestApplyAfterSale(t *testing.T) {
	order := appliedOrder(t, enums.AfterSaleTypeRefund)

	assert.Equal(t, enums.OrderStatusAfterSale, order.Status)
	require.NotNil(t, order.AfterSale)
	assert.Equal(t, enums.AfterSaleStatusApplied, order.AfterSale.Status)
	assert.Equal(t, testNow, order.AfterSale.AppliedAt)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, order.AfterSale.Attachments)
	last := order.History[len(order.History)-1]
	assert.Equal(t, enums.OrderStatusAfterSale, last.Status)
	assert.Equal(t, "水果磕碰", *last.Note)
}

func TestApplyAfterSaleFromCompleted(t *testing.T) {
	order := newTestOrder(enums.OrderStatusCompleted)
	changes, err := ApplyAfterSale(order, AfterSaleApplication{Type: enums.AfterSaleTypeExchange, Reason: "规格不符"}, testNow)
	require.NoError(t, err)
	assert.True(t, changes.AfterSaleChanged)
	assert.Equal(t, enums.OrderStatusAfterSale, order.Status)
}

func TestApplyAfterSaleNotEligible(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
		enums.OrderStatusAfterSale,
	} {
		t.Run(status.String(), func(t *testing.T) {
			order := newTestOrder(status)
			_, err := ApplyAfterSale(order, AfterSaleApplication{Type: enums.AfterSaleTypeRefund, Reason: "不新鲜"}, testNow)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAfterSaleNotEligible))
			assert.Nil(t, order.AfterSale)
			assert.Equal(t, status, order.Status)
		})
	}
}

func TestApplyAfterSaleTwice(t *testing.T) {
	order := appliedOrder(t, enums.AfterSaleTypeRefund)
	_, err := UpdateAfterSale(order, AfterSaleUpdate{Status: enums.AfterSaleStatusRejected}, testNow)
	require.NoError(t, err)
	_, err = Transition(order, enums.OrderStatusCompleted, nil, testNow)
	require.NoError(t, err)

	_, err = ApplyAfterSale(order, AfterSaleApplication{Type: enums.AfterSaleTypeRefund, Reason: "再次申请"}, testNow)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAfterSaleNotEligible))
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
	assert.Equal(t, enums.AfterSaleStatusResolved, order.AfterSale.Status)
	assert.Equal(t, "水果磕碰", order.AfterSale.Reason)
}

func TestApplyAfterSaleValidation(t *testing.T) {
	order := newTestOrder(enums.OrderStatusShipped)
	_, err := ApplyAfterSale(order, AfterSaleApplication{Type: enums.AfterSaleTypeRefund, Reason: " "}, testNow)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = ApplyAfterSale(order, AfterSaleApplication{Type: "swap", Reason: "x"}, testNow)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.OrderStatusShipped, order.Status)
}

func TestRefundResolutionCompletesOrder(t *testing.T) {
	order := appliedOrder(t, enums.AfterSaleTypeRefund)
	resolvedAt := testNow.Add(2 * time.Hour)

	changes, err := UpdateAfterSale(order, AfterSaleUpdate{
		Status: enums.AfterSaleStatusResolved,
		Refund: &RefundInput{Amount: money.Cents(5000), Method: enums.RefundMethodOriginal, ReferenceID: strPtr("RF-1")},
	}, resolvedAt)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
	assert.Equal(t, enums.AfterSaleStatusResolved, order.AfterSale.Status)
	require.True(t, order.AfterSale.HasRefund())
	assert.Equal(t, money.Cents(5000), *order.AfterSale.RefundAmountCents)
	assert.Equal(t, resolvedAt, *order.AfterSale.RefundCompletedAt)
	assert.Equal(t, "RF-1", *order.AfterSale.RefundReferenceID)

	require.Len(t, changes.StatusChanges, 1)
	assert.Equal(t, enums.OrderStatusAfterSale, changes.StatusChanges[0].From)
	assert.Equal(t, enums.OrderStatusCompleted, changes.StatusChanges[0].To)
	assert.Equal(t, NoteRefundCompleted, *order.History[len(order.History)-1].Note)
}

func TestExchangeResolutionKeepsOrderInAfterSale(t *testing.T) {
	order := appliedOrder(t, enums.AfterSaleTypeExchange)

	changes, err := UpdateAfterSale(order, AfterSaleUpdate{Status: enums.AfterSaleStatusResolved, Note: strPtr("已补发")}, testNow)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAfterSale, order.Status)
	assert.Empty(t, changes.StatusChanges)
	assert.Equal(t, "已补发", *order.AfterSale.ResolutionNote)
}

func TestRejectionReturnsOpenOrderToProcessing(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	order.AfterSale = &models.AfterSale{
		OrderID: order.ID,
		Type:    enums.AfterSaleTypeRefund,
		Status:  enums.AfterSaleStatusApplied,
	}

	changes, err := UpdateAfterSale(order, AfterSaleUpdate{Status: enums.AfterSaleStatusRejected}, testNow)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	require.Len(t, changes.StatusChanges, 1)
	assert.Equal(t, NoteAfterSaleRejected, *changes.StatusChanges[0].Note)
}

func TestRejectionLeavesAfterSaleOrder(t *testing.T) {
	order := appliedOrder(t, enums.AfterSaleTypeReturnRefund)
	changes, err := UpdateAfterSale(order, AfterSaleUpdate{Status: enums.AfterSaleStatusRejected}, testNow)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAfterSale, order.Status)
	assert.Empty(t, changes.StatusChanges)
}

func TestAfterSaleSubStateTable(t *testing.T) {
	statuses := []enums.AfterSaleStatus{
		enums.AfterSaleStatusApplied,
		enums.AfterSaleStatusProcessing,
		enums.AfterSaleStatusResolved,
		enums.AfterSaleStatusRejected,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			order := appliedOrder(t, enums.AfterSaleTypeExchange)
			order.AfterSale.Status = from

			_, err := UpdateAfterSale(order, AfterSaleUpdate{Status: to}, testNow)
			if CanTransitionAfterSale(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, order.AfterSale.Status)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidAfterSaleTransition), "%s -> %s", from, to)
			assert.Equal(t, from, order.AfterSale.Status)
		}
	}
}

func TestRefundValidation(t *testing.T) {
	cases := map[string]AfterSaleUpdate{
		"zero amount": {
			Status: enums.AfterSaleStatusResolved,
			Refund: &RefundInput{Amount: 0, Method: enums.RefundMethodOriginal},
		},
		"negative amount": {
			Status: enums.AfterSaleStatusResolved,
			Refund: &RefundInput{Amount: -100, Method: enums.RefundMethodOriginal},
		},
		"above order total": {
			Status: enums.AfterSaleStatusResolved,
			Refund: &RefundInput{Amount: 14291, Method: enums.RefundMethodOriginal},
		},
		"unknown method": {
			Status: enums.AfterSaleStatusResolved,
			Refund: &RefundInput{Amount: 100, Method: "cash"},
		},
		"refund while processing": {
			Status: enums.AfterSaleStatusProcessing,
			Refund: &RefundInput{Amount: 100, Method: enums.RefundMethodOriginal},
		},
	}
	for name, update := range cases {
		t.Run(name, func(t *testing.T) {
			order := appliedOrder(t, enums.AfterSaleTypeRefund)
			_, err := UpdateAfterSale(order, update, testNow)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
			assert.Equal(t, enums.AfterSaleStatusApplied, order.AfterSale.Status)
			assert.Equal(t, enums.OrderStatusAfterSale, order.Status)
		})
	}
}

func TestUpdateAfterSaleWithoutRequest(t *testing.T) {
	order := newTestOrder(enums.OrderStatusShipped)
	_, err := UpdateAfterSale(order, AfterSaleUpdate{Status: enums.AfterSaleStatusProcessing}, testNow)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
