package orders_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/internal/address"
	"github.com/farmfresh/farmfresh-backend/internal/cart"
	"github.com/farmfresh/farmfresh-backend/internal/orders"
	product "github.com/farmfresh/farmfresh-backend/internal/products"
	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/db/dbtest"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
	"github.com/farmfresh/farmfresh-backend/pkg/outbox"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

type harness struct {
	client   *db.Client
	svc      orders.Service
	products *product.Repository
	outbox   *outbox.Repository
	registry *prometheus.Registry
	customer auth.Principal
	farmer   auth.Principal
	farm     *models.FarmerProfile
	admin    auth.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.New(t)
	conn := client.DB()

	products := product.NewRepository(conn)
	outboxRepo := outbox.NewRepository(conn)
	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)
	svc, err := orders.NewService(
		orders.NewRepository(conn),
		client,
		outbox.NewService(outboxRepo, nil),
		cart.NewRepository(conn),
		products,
		address.NewRepository(conn),
		orderMetrics,
		nil,
	)
	require.NoError(t, err)

	customer := dbtest.Customer(t, conn)
	farmerUser, farm := dbtest.Farmer(t, conn)
	return &harness{
		client:   client,
		svc:      svc,
		products: products,
		outbox:   outboxRepo,
		registry: registry,
		farm:     farm,
		customer: auth.Principal{UserID: customer.ID, Role: enums.RoleCustomer},
		farmer:   auth.Principal{UserID: farmerUser.ID, Role: enums.RoleFarmer, FarmerProfileID: &farm.ID},
		admin:    auth.Principal{UserID: uuid.New(), Role: enums.RoleAdmin},
	}
}

func checkoutInput() orders.CreateOrderInput {
	return orders.CreateOrderInput{
		ContactName:   "李四",
		ContactPhone:  "13900139000",
		Address:       "北京市 朝阳区 建国路 88 号",
		PaymentMethod: enums.PaymentMethodWeChat,
	}
}

// placeOrder puts one product in the cart and checks out.
func (h *harness) placeOrder(t *testing.T) *orders.OrderDTO {
	t.Helper()
	p := dbtest.Product(t, h.client.DB(), h.farm.ID, dbtest.WithPrice(4500), dbtest.WithStock(10))
	dbtest.CartItem(t, h.client.DB(), h.customer.UserID, p.ID, 2, true)
	order, err := h.svc.CreateFromCart(context.Background(), h.customer, checkoutInput())
	require.NoError(t, err)
	return order
}

func (h *harness) advance(t *testing.T, id uuid.UUID, statuses ...enums.OrderStatus) {
	t.Helper()
	for _, to := range statuses {
		_, err := h.svc.UpdateStatus(context.Background(), h.farmer, id, to, nil)
		require.NoError(t, err, "advance to %s", to)
	}
}

func (h *harness) eventTypes(t *testing.T, id uuid.UUID) []enums.OutboxEventType {
	t.Helper()
	rows, err := h.outbox.ListForAggregate(id)
	require.NoError(t, err)
	types := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.EventType)
	}
	return types
}

func TestCreateFromCartPricesAndClearsSelection(t *testing.T) {
	h := newHarness(t)
	conn := h.client.DB()
	apples := dbtest.Product(t, conn, h.farm.ID, dbtest.WithPrice(3990), dbtest.WithStock(10))
	honey := dbtest.Product(t, conn, h.farm.ID, dbtest.WithPrice(5510), dbtest.WithStock(1))
	kept := dbtest.Product(t, conn, h.farm.ID)
	dbtest.CartItem(t, conn, h.customer.UserID, apples.ID, 2, true)
	dbtest.CartItem(t, conn, h.customer.UserID, honey.ID, 1, true)
	dbtest.CartItem(t, conn, h.customer.UserID, kept.ID, 1, false)

	order, err := h.svc.CreateFromCart(context.Background(), h.customer, checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, money.Cents(13490), order.Subtotal)
	assert.Equal(t, money.Cents(0), order.Discount)
	assert.Equal(t, money.Cents(800), order.DeliveryFee)
	assert.Equal(t, money.Cents(14290), order.Total)
	assert.Equal(t, h.farm.ID, order.FarmerID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, apples.ID, order.Items[0].ProductID)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusPending, order.StatusHistory[0].Status)
	require.NotNil(t, order.StatusHistory[0].Note)
	assert.Equal(t, orders.NoteOrderCreated, *order.StatusHistory[0].Note)

	reloaded, err := h.products.FindByID(context.Background(), apples.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.Stock)
	assert.Equal(t, 2, reloaded.SalesCount)
	reloaded, err = h.products.FindByID(context.Background(), honey.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)

	var remaining []models.CartItem
	require.NoError(t, conn.Where("user_id = ?", h.customer.UserID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ProductID)

	assert.Equal(t, []enums.OutboxEventType{enums.EventOrderCreated}, h.eventTypes(t, order.ID))
	assert.Equal(t, 1, testutil.CollectAndCount(h.registry, "orders_created_total"))
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "orders_created_total" {
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestCreateFromCartAppliesDiscount(t *testing.T) {
	h := newHarness(t)
	p := dbtest.Product(t, h.client.DB(), h.farm.ID, dbtest.WithPrice(11000), dbtest.WithStock(5))
	dbtest.CartItem(t, h.client.DB(), h.customer.UserID, p.ID, 2, true)

	order, err := h.svc.CreateFromCart(context.Background(), h.customer, checkoutInput())
	require.NoError(t, err)
	assert.Equal(t, money.Cents(22000), order.Subtotal)
	assert.Equal(t, money.Cents(2000), order.Discount)
	assert.Equal(t, money.Cents(20800), order.Total)
}

func TestCreateFromCartSnapshotsSavedAddress(t *testing.T) {
	h := newHarness(t)
	conn := h.client.DB()
	addr := &models.Address{
		UserID: h.customer.UserID, ContactName: "王五", Phone: "13700137000",
		Province: "广东省", City: "深圳市", District: "南山区", Detail: "科技园 1 栋",
	}
	require.NoError(t, conn.Create(addr).Error)
	p := dbtest.Product(t, conn, h.farm.ID)
	dbtest.CartItem(t, conn, h.customer.UserID, p.ID, 1, true)

	order, err := h.svc.CreateFromCart(context.Background(), h.customer, orders.CreateOrderInput{
		AddressID:     &addr.ID,
		PaymentMethod: enums.PaymentMethodAlipay,
	})
	require.NoError(t, err)
	assert.Equal(t, "王五", order.ContactName)
	assert.Equal(t, "广东省 深圳市 南山区 科技园 1 栋", order.Address)
}

func TestCreateFromCartRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateFromCart(ctx, h.customer, checkoutInput())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeEmptyCart))
	})

	t.Run("nothing selected", func(t *testing.T) {
		h := newHarness(t)
		p := dbtest.Product(t, h.client.DB(), h.farm.ID)
		dbtest.CartItem(t, h.client.DB(), h.customer.UserID, p.ID, 1, false)
		_, err := h.svc.CreateFromCart(ctx, h.customer, checkoutInput())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNoSelection))
	})

	t.Run("retired product", func(t *testing.T) {
		h := newHarness(t)
		p := dbtest.Product(t, h.client.DB(), h.farm.ID, dbtest.WithStatus(enums.ProductStatusInactive))
		dbtest.CartItem(t, h.client.DB(), h.customer.UserID, p.ID, 1, true)
		_, err := h.svc.CreateFromCart(ctx, h.customer, checkoutInput())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductNotFound))
	})

	t.Run("two farms", func(t *testing.T) {
		h := newHarness(t)
		_, otherFarm := dbtest.Farmer(t, h.client.DB())
		a := dbtest.Product(t, h.client.DB(), h.farm.ID)
		b := dbtest.Product(t, h.client.DB(), otherFarm.ID)
		dbtest.CartItem(t, h.client.DB(), h.customer.UserID, a.ID, 1, true)
		dbtest.CartItem(t, h.client.DB(), h.customer.UserID, b.ID, 1, true)
		_, err := h.svc.CreateFromCart(ctx, h.customer, checkoutInput())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeMultiFarmerCart))
	})

	t.Run("farmer cannot buy", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.CreateFromCart(ctx, h.farmer, checkoutInput())
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	})

	t.Run("missing contact", func(t *testing.T) {
		h := newHarness(t)
		p := dbtest.Product(t, h.client.DB(), h.farm.ID)
		dbtest.CartItem(t, h.client.DB(), h.customer.UserID, p.ID, 1, true)
		_, err := h.svc.CreateFromCart(ctx, h.customer, orders.CreateOrderInput{PaymentMethod: enums.PaymentMethodCard})
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	})
}

func TestCreateFromCartInsufficientStockWritesNothing(t *testing.T) {
	h := newHarness(t)
	conn := h.client.DB()
	plenty := dbtest.Product(t, conn, h.farm.ID, dbtest.WithStock(10))
	scarce := dbtest.Product(t, conn, h.farm.ID, dbtest.WithStock(1))
	dbtest.CartItem(t, conn, h.customer.UserID, plenty.ID, 3, true)
	dbtest.CartItem(t, conn, h.customer.UserID, scarce.ID, 2, true)

	_, err := h.svc.CreateFromCart(context.Background(), h.customer, checkoutInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	reloaded, err := h.products.FindByID(context.Background(), plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)

	var cartCount, orderCount int64
	require.NoError(t, conn.Model(&models.CartItem{}).Count(&cartCount).Error)
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 2, cartCount)
	assert.EqualValues(t, 0, orderCount)
}

func TestStatusFlowPersistsHistory(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()

	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	got, err := h.svc.Get(ctx, h.customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, enums.OrderStatusProcessing, got.StatusHistory[1].Status)

	_, err = h.svc.UpdateStatus(ctx, h.farmer, order.ID, enums.OrderStatusPending, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidTransition))

	// same status is a no-op
	same, err := h.svc.UpdateStatus(ctx, h.farmer, order.ID, enums.OrderStatusShipped, nil)
	require.NoError(t, err)
	assert.Len(t, same.StatusHistory, 3)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderStatusChanged,
		enums.EventOrderStatusChanged,
	}, h.eventTypes(t, order.ID))
}

func TestCancelByCustomer(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()

	reason := "买错了"
	cancelled, err := h.svc.Cancel(ctx, h.customer, order.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, reason, cancelled.Cancellation.Reason)

	_, err = h.svc.Cancel(ctx, h.customer, order.ID, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidStateForCancel))
}

func TestCancelAfterShipmentIsRejected(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	_, err := h.svc.Cancel(context.Background(), h.customer, order.ID, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidStateForCancel))
}

func TestDeliveredCheckpointCompletesOrder(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()
	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	_, err := h.svc.AppendCheckpoint(ctx, h.farmer, order.ID, orders.CheckpointInput{Kind: enums.CheckpointKindPickedUp, Status: enums.CheckpointLabelPickedUp})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeLogisticsNotSet))

	_, err = h.svc.SetLogistics(ctx, h.farmer, order.ID, orders.LogisticsInput{Carrier: "顺丰速运", TrackingNumber: "SF1234567890"})
	require.NoError(t, err)
	_, err = h.svc.AppendCheckpoint(ctx, h.farmer, order.ID, orders.CheckpointInput{Kind: enums.CheckpointKindPickedUp, Status: enums.CheckpointLabelPickedUp})
	require.NoError(t, err)
	done, err := h.svc.AppendCheckpoint(ctx, h.farmer, order.ID, orders.CheckpointInput{Kind: enums.CheckpointKindDelivered, Status: enums.CheckpointLabelDelivered})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCompleted, done.Status)
	require.NotNil(t, done.Logistics)
	require.Len(t, done.Logistics.Checkpoints, 2)
	assert.Equal(t, enums.CheckpointKindDelivered, done.Logistics.Checkpoints[1].Kind)

	got, err := h.svc.Get(ctx, h.customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, got.Status)
	assert.Len(t, got.Logistics.Checkpoints, 2)
	last := got.StatusHistory[len(got.StatusHistory)-1]
	require.NotNil(t, last.Note)
	assert.Equal(t, orders.NoteDeliveredCompleted, *last.Note)
}

func TestConfirmReceiptByCustomer(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	got, err := h.svc.ConfirmReceipt(context.Background(), h.customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, got.Status)
}

func TestRefundAfterSaleCompletesOrder(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()
	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	applied, err := h.svc.ApplyAfterSale(ctx, h.customer, order.ID, orders.AfterSaleApplication{
		Type:        enums.AfterSaleTypeRefund,
		Reason:      "果子压坏了",
		Attachments: []string{"https://cdn.example.com/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAfterSale, applied.Status)
	require.NotNil(t, applied.AfterSale)
	assert.Equal(t, enums.AfterSaleStatusApplied, applied.AfterSale.Status)

	_, err = h.svc.UpdateAfterSale(ctx, h.farmer, order.ID, orders.AfterSaleUpdate{Status: enums.AfterSaleStatusProcessing})
	require.NoError(t, err)
	resolved, err := h.svc.UpdateAfterSale(ctx, h.farmer, order.ID, orders.AfterSaleUpdate{
		Status: enums.AfterSaleStatusResolved,
		Refund: &orders.RefundInput{Amount: 4500, Method: enums.RefundMethodOriginal},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, resolved.Status)
	require.NotNil(t, resolved.AfterSale.Refund)
	assert.Equal(t, money.Cents(4500), resolved.AfterSale.Refund.Amount)

	got, err := h.svc.Get(ctx, h.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AfterSaleStatusResolved, got.AfterSale.Status)
	require.NotNil(t, got.AfterSale.Refund)
	assert.Contains(t, h.eventTypes(t, order.ID), enums.EventOrderAfterSaleUpdated)
}

func TestExchangeResolutionKeepsAfterSaleStatus(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()
	h.advance(t, order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped)

	_, err := h.svc.ApplyAfterSale(ctx, h.customer, order.ID, orders.AfterSaleApplication{Type: enums.AfterSaleTypeExchange, Reason: "发错货"})
	require.NoError(t, err)
	got, err := h.svc.UpdateAfterSale(ctx, h.farmer, order.ID, orders.AfterSaleUpdate{Status: enums.AfterSaleStatusResolved})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAfterSale, got.Status)
	assert.Equal(t, enums.AfterSaleStatusResolved, got.AfterSale.Status)
}

func TestForeignActorsCannotSeeOrAct(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	ctx := context.Background()

	stranger := auth.Principal{UserID: dbtest.Customer(t, h.client.DB()).ID, Role: enums.RoleCustomer}
	_, err := h.svc.Get(ctx, stranger, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	otherFarmerUser, otherFarm := dbtest.Farmer(t, h.client.DB())
	otherFarmer := auth.Principal{UserID: otherFarmerUser.ID, Role: enums.RoleFarmer, FarmerProfileID: &otherFarm.ID}
	_, err = h.svc.UpdateStatus(ctx, otherFarmer, order.ID, enums.OrderStatusProcessing, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	// the customer owns the order but cannot ship it
	_, err = h.svc.UpdateStatus(ctx, h.customer, order.ID, enums.OrderStatusProcessing, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Get(ctx, h.customer, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListIsScopedByRole(t *testing.T) {
	h := newHarness(t)
	first := h.placeOrder(t)
	second := h.placeOrder(t)
	h.advance(t, second.ID, enums.OrderStatusProcessing)
	ctx := context.Background()

	page, err := h.svc.List(ctx, h.customer, orders.ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	processing := enums.OrderStatusProcessing
	page, err = h.svc.List(ctx, h.farmer, orders.ListFilter{Status: &processing}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, 2, page.Items[0].ItemCount)

	stranger := auth.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}
	page, err = h.svc.List(ctx, stranger, orders.ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = h.svc.List(ctx, h.admin, orders.ListFilter{}, pagination.Params{PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.Contains(t, []uuid.UUID{first.ID, second.ID}, page.Items[0].ID)
}
