package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/internal/cart"
	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
	"github.com/farmfresh/farmfresh-backend/pkg/outbox"
	"github.com/farmfresh/farmfresh-backend/pkg/outbox/payloads"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order application layer: every command loads the aggregate
// under a row lock, runs the lifecycle engine and persists what changed.
type Service interface {
	CreateFromCart(ctx context.Context, actor auth.Principal, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, actor auth.Principal, filter ListFilter, params pagination.Params) (pagination.Page[OrderSummaryDTO], error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, to enums.OrderStatus, note *string) (*OrderDTO, error)
	Cancel(ctx context.Context, actor auth.Principal, id uuid.UUID, reason *string) (*OrderDTO, error)
	ConfirmReceipt(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error)
	SetLogistics(ctx context.Context, actor auth.Principal, id uuid.UUID, input LogisticsInput) (*OrderDTO, error)
	AppendCheckpoint(ctx context.Context, actor auth.Principal, id uuid.UUID, input CheckpointInput) (*OrderDTO, error)
	ApplyAfterSale(ctx context.Context, actor auth.Principal, id uuid.UUID, input AfterSaleApplication) (*OrderDTO, error)
	UpdateAfterSale(ctx context.Context, actor auth.Principal, id uuid.UUID, input AfterSaleUpdate) (*OrderDTO, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outbox.Emitter
	cart      CartStore
	stock     StockReserver
	addresses AddressLookup
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies. Metrics
// may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	emitter outbox.Emitter,
	cartStore CartStore,
	stock StockReserver,
	addresses AddressLookup,
	orderMetrics *metrics.OrderMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    emitter,
		cart:      cartStore,
		stock:     stock,
		addresses: addresses,
		metrics:   orderMetrics,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateFromCart(ctx context.Context, actor auth.Principal, input CreateOrderInput) (*OrderDTO, error) {
	const op = "create"
	if actor.Role != enums.RoleCustomer {
		return nil, s.reject(op, pkgerrors.New(pkgerrors.CodeForbidden, "only customers can place orders"))
	}
	if !input.PaymentMethod.IsValid() {
		return nil, s.reject(op, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown payment method %q", input.PaymentMethod))
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.cart.ListItemsTx(ctx, tx, actor.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		selected := lo.Filter(items, func(item models.CartItem, _ int) bool { return item.Selected })
		if len(selected) == 0 {
			return pkgerrors.New(pkgerrors.CodeNoSelection, "select at least one cart item")
		}
		for _, item := range selected {
			if err := checkAvailable(item); err != nil {
				return err
			}
		}
		farmers := lo.Uniq(lo.Map(selected, func(item models.CartItem, _ int) uuid.UUID { return item.Product.FarmerID }))
		if len(farmers) > 1 {
			return pkgerrors.New(pkgerrors.CodeMultiFarmerCart, "selected items belong to more than one farmer").
				WithDetails(map[string]any{"farmerIds": farmers})
		}

		contact, err := s.resolveContact(ctx, tx, actor.UserID, input)
		if err != nil {
			return err
		}

		for _, item := range selected {
			if err := s.stock.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := s.now()
		order := buildOrder(actor.UserID, farmers[0], selected, contact, input, now)
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		itemIDs := lo.Map(selected, func(item models.CartItem, _ int) uuid.UUID { return item.ID })
		if err := s.cart.DeleteItemsTx(ctx, tx, actor.UserID, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear ordered cart items")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				FarmerID:   order.FarmerID,
				Total:      order.TotalCents,
				ItemCount:  len(order.Items),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.metrics.IncCreated()
	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	logCtx = s.logg.WithField(logCtx, "total", created.TotalCents.String())
	s.logg.Info(logCtx, "order created")
	return ToOrderDTO(created), nil
}

func checkAvailable(item models.CartItem) error {
	if item.Product == nil || item.Product.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, "product is no longer available").
			WithDetails(map[string]any{"productId": item.ProductID})
	}
	if item.Quantity > item.Product.Stock {
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d left of %s", item.Product.Stock, item.Product.Name).
			WithDetails(map[string]any{
				"productId": item.ProductID,
				"requested": item.Quantity,
				"available": item.Product.Stock,
			})
	}
	return nil
}

type contactSnapshot struct {
	name    string
	phone   string
	address string
}

func (s *service) resolveContact(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input CreateOrderInput) (contactSnapshot, error) {
	if input.AddressID != nil {
		addr, err := s.addresses.FindForUser(ctx, tx, userID, *input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contactSnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return contactSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
		}
		return contactSnapshot{name: addr.ContactName, phone: addr.Phone, address: addr.FullAddress()}, nil
	}
	contact := contactSnapshot{
		name:    strings.TrimSpace(input.ContactName),
		phone:   strings.TrimSpace(input.ContactPhone),
		address: strings.TrimSpace(input.Address),
	}
	if contact.name == "" || contact.phone == "" || contact.address == "" {
		return contactSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "contact name, phone and address are required").
			WithDetails(map[string]any{"fields": []string{"contactName", "contactPhone", "address"}})
	}
	return contact, nil
}

func buildOrder(customerID, farmerID uuid.UUID, selected []models.CartItem, contact contactSnapshot, input CreateOrderInput, now time.Time) *models.Order {
	lines := make([]cart.Line, 0, len(selected))
	items := make([]models.OrderItem, 0, len(selected))
	for i, item := range selected {
		p := item.Product
		lines = append(lines, cart.Line{UnitPrice: p.PriceCents, Quantity: item.Quantity})
		items = append(items, models.OrderItem{
			Position:       i + 1,
			ProductID:      p.ID,
			ProductName:    p.Name,
			Thumbnail:      p.Thumbnail(),
			Unit:           p.Unit,
			UnitPriceCents: p.PriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  p.PriceCents.Times(item.Quantity),
		})
	}
	quote := cart.Quote(lines)

	order := &models.Order{
		ID:               uuid.New(),
		CustomerID:       customerID,
		FarmerID:         farmerID,
		Status:           enums.OrderStatusPending,
		SubtotalCents:    quote.Subtotal,
		DiscountCents:    quote.Discount,
		DeliveryFeeCents: quote.DeliveryFee,
		TotalCents:       quote.Total,
		ContactName:      contact.name,
		ContactPhone:     contact.phone,
		Address:          contact.address,
		PaymentMethod:    input.PaymentMethod,
		Note:             normalizeNote(input.Note),
		Version:          1,
		Items:            items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	note := NoteOrderCreated
	(&Changes{}).appendHistory(order, enums.OrderStatusPending, &note, now)
	return order
}

func (s *service) List(ctx context.Context, actor auth.Principal, filter ListFilter, params pagination.Params) (pagination.Page[OrderSummaryDTO], error) {
	params = params.Normalize()
	var scope ListScope
	switch actor.Role {
	case enums.RoleAdmin:
	case enums.RoleCustomer:
		scope.CustomerID = &actor.UserID
	case enums.RoleFarmer:
		if actor.FarmerProfileID == nil {
			return pagination.Page[OrderSummaryDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required")
		}
		scope.FarmerID = actor.FarmerProfileID
	default:
		return pagination.Page[OrderSummaryDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}

	rows, total, err := s.repo.List(ctx, scope, filter, params)
	if err != nil {
		return pagination.Page[OrderSummaryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.NewPage(lo.Map(rows, func(o models.Order, _ int) OrderSummaryDTO { return ToOrderSummaryDTO(o) }), total, params), nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if err := Authorize(actor, ActionView, order); err != nil {
		return nil, err
	}
	return ToOrderDTO(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, to enums.OrderStatus, note *string) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionUpdateStatus, "update_status", func(o *models.Order, now time.Time) (*Changes, error) {
		return Transition(o, to, note, now)
	})
}

func (s *service) Cancel(ctx context.Context, actor auth.Principal, id uuid.UUID, reason *string) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionCancel, "cancel", func(o *models.Order, now time.Time) (*Changes, error) {
		return Cancel(o, reason, now)
	})
}

func (s *service) ConfirmReceipt(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionConfirmReceipt, "confirm_receipt", func(o *models.Order, now time.Time) (*Changes, error) {
		return ConfirmReceipt(o, now)
	})
}

func (s *service) SetLogistics(ctx context.Context, actor auth.Principal, id uuid.UUID, input LogisticsInput) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionManageLogistics, "set_logistics", func(o *models.Order, now time.Time) (*Changes, error) {
		return SetLogistics(o, input, now)
	})
}

func (s *service) AppendCheckpoint(ctx context.Context, actor auth.Principal, id uuid.UUID, input CheckpointInput) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionManageLogistics, "append_checkpoint", func(o *models.Order, now time.Time) (*Changes, error) {
		return AppendCheckpoint(o, input, now)
	})
}

func (s *service) ApplyAfterSale(ctx context.Context, actor auth.Principal, id uuid.UUID, input AfterSaleApplication) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionApplyAfterSale, "apply_after_sale", func(o *models.Order, now time.Time) (*Changes, error) {
		return ApplyAfterSale(o, input, now)
	})
}

func (s *service) UpdateAfterSale(ctx context.Context, actor auth.Principal, id uuid.UUID, input AfterSaleUpdate) (*OrderDTO, error) {
	return s.mutate(ctx, actor, id, ActionProcessAfterSale, "update_after_sale", func(o *models.Order, now time.Time) (*Changes, error) {
		return UpdateAfterSale(o, input, now)
	})
}

type command func(o *models.Order, now time.Time) (*Changes, error)

// mutate runs load, authorize, engine and save in one transaction.
func (s *service) mutate(ctx context.Context, actor auth.Principal, id uuid.UUID, action Action, op string, run command) (*OrderDTO, error) {
	var (
		result  *models.Order
		changes *Changes
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LoadForUpdate(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}
		if err := Authorize(actor, action, order); err != nil {
			return err
		}

		now := s.now()
		version := order.Version
		changes, err = run(order, now)
		if err != nil {
			return err
		}
		result = order
		if changes.Empty() {
			return nil
		}

		if err := repo.Save(ctx, order, version, changes); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save order")
		}
		return s.emitChanges(ctx, tx, actor, order, changes, now)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	if !changes.Empty() {
		logCtx := s.logg.WithOrderID(ctx, result.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"operation": op, "status": result.Status.Wire()})
		for _, sc := range changes.StatusChanges {
			s.metrics.ObserveTransition(sc.From.Wire(), sc.To.Wire())
		}
		s.logg.Info(logCtx, "order updated")
	}
	return ToOrderDTO(result), nil
}

func (s *service) emitChanges(ctx context.Context, tx *gorm.DB, actor auth.Principal, o *models.Order, changes *Changes, now time.Time) error {
	events := make([]outbox.DomainEvent, 0, len(changes.StatusChanges)+2)
	for _, sc := range changes.StatusChanges {
		events = append(events, orderEvent(enums.EventOrderStatusChanged, o, actor, now, payloads.OrderStatusChangedEvent{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			FarmerID:   o.FarmerID,
			From:       sc.From,
			To:         sc.To,
			Note:       sc.Note,
			ChangedAt:  sc.At,
		}))
	}
	if changes.LogisticsChanged && o.Logistics != nil {
		data := payloads.OrderLogisticsUpdatedEvent{
			OrderID:        o.ID,
			Carrier:        o.Logistics.Carrier,
			TrackingNumber: o.Logistics.TrackingNumber,
			UpdatedAt:      o.Logistics.UpdatedAt,
		}
		if n := len(changes.Checkpoints); n > 0 {
			last := changes.Checkpoints[n-1]
			data.CheckpointKind = &last.Kind
			data.CheckpointText = &last.Status
		}
		events = append(events, orderEvent(enums.EventOrderLogisticsUpdated, o, actor, now, data))
	}
	if changes.AfterSaleChanged && o.AfterSale != nil {
		events = append(events, orderEvent(enums.EventOrderAfterSaleUpdated, o, actor, now, payloads.OrderAfterSaleUpdatedEvent{
			OrderID:      o.ID,
			Type:         o.AfterSale.Type,
			Status:       o.AfterSale.Status,
			RefundAmount: o.AfterSale.RefundAmountCents,
			UpdatedAt:    o.AfterSale.UpdatedAt,
		}))
	}
	for _, event := range events {
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit "+event.EventType.String())
		}
	}
	return nil
}

func orderEvent(eventType enums.OutboxEventType, o *models.Order, actor auth.Principal, now time.Time, data any) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   o.ID,
		Actor:         actorRef(actor),
		OccurredAt:    now,
		Data:          data,
	}
}

func actorRef(actor auth.Principal) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role, FarmerProfileID: actor.FarmerProfileID}
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}

// reject counts business-rule refusals and passes the error through.
func (s *service) reject(op string, err error) error {
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeInternal {
		s.metrics.IncRejected(op, string(code))
	}
	return err
}
