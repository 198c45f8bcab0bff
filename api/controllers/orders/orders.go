package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/api/middleware"
	"github.com/farmfresh/farmfresh-backend/api/responses"
	"github.com/farmfresh/farmfresh-backend/api/validators"
	internalorders "github.com/farmfresh/farmfresh-backend/internal/orders"
	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

// Create places an order from the caller's selected cart lines.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CreateFromCart(r.Context(), actor, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns the orders visible to the caller, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter internalorders.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			filter.Status = &status
		}

		page, err := svc.List(r.Context(), actor, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		return svc.Get(r.Context(), actor, id)
	})
}

// UpdateStatus moves the order along the transition table. Farmers and admins only.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), actor, id, body.Status, body.Note)
	})
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body cancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				return nil, err
			}
		}
		return svc.Cancel(r.Context(), actor, id, body.Reason)
	})
}

func ConfirmReceipt(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		return svc.ConfirmReceipt(r.Context(), actor, id)
	})
}

func SetLogistics(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body logisticsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetLogistics(r.Context(), actor, id, internalorders.LogisticsInput{
			Carrier:        body.Carrier,
			TrackingNumber: body.TrackingNumber,
			ContactPhone:   body.ContactPhone,
		})
	})
}

// AppendCheckpoint records a tracking event. A delivered checkpoint may
// complete the order.
func AppendCheckpoint(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body checkpointRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.AppendCheckpoint(r.Context(), actor, id, internalorders.CheckpointInput{
			Kind:        body.kind(),
			Status:      body.Status,
			Description: body.Description,
			Location:    body.Location,
		})
	})
}

func ApplyAfterSale(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body afterSaleApplyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.ApplyAfterSale(r.Context(), actor, id, internalorders.AfterSaleApplication{
			Type:        body.Type,
			Reason:      body.Reason,
			Description: body.Description,
			Attachments: body.Attachments,
		})
	})
}

func UpdateAfterSale(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error) {
		var body afterSaleUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.UpdateAfterSale(r.Context(), actor, id, body.input())
	})
}

type orderAction func(r *http.Request, actor auth.Principal, id uuid.UUID) (*internalorders.OrderDTO, error)

// withOrder resolves the caller and the {orderID} path parameter before running fn.
func withOrder(svc internalorders.Service, logg *logger.Logger, fn orderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, id.String())
			r = r.WithContext(ctx)
		}

		order, err := fn(r, actor, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func requireActor(w http.ResponseWriter, r *http.Request, svc internalorders.Service, logg *logger.Logger) (auth.Principal, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
		return auth.Principal{}, false
	}
	actor, err := middleware.Actor(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return auth.Principal{}, false
	}
	return actor, true
}
