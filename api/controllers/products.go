package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/api/middleware"
	"github.com/farmfresh/farmfresh-backend/api/responses"
	"github.com/farmfresh/farmfresh-backend/api/validators"
	product "github.com/farmfresh/farmfresh-backend/internal/products"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/money"
)

// ListProducts serves the public catalog with filters, sort and paging.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ListCategories(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func parseProductFilters(r *http.Request) (product.ListFilters, error) {
	q := r.URL.Query()
	filters := product.ListFilters{
		Keyword: validators.SanitizeString(q.Get("keyword"), 64),
	}

	sort, err := enums.ParseProductSort(strings.TrimSpace(q.Get("sort")))
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}
	filters.Sort = sort

	for key, dest := range map[string]**uuid.UUID{"categoryId": &filters.CategoryID, "farmerId": &filters.FarmerID} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid id filter").WithDetails(map[string]any{"field": key})
		}
		*dest = &id
	}

	for key, dest := range map[string]**money.Cents{"minPrice": &filters.MinPrice, "maxPrice": &filters.MaxPrice} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		cents, err := money.Parse(raw)
		if err != nil || cents < 0 {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid price filter").WithDetails(map[string]any{"field": key})
		}
		*dest = &cents
	}

	if filters.Organic, err = validators.ParseQueryBool(r, "organic"); err != nil {
		return filters, err
	}
	if filters.Seasonal, err = validators.ParseQueryBool(r, "seasonal"); err != nil {
		return filters, err
	}
	return filters, nil
}

type createProductRequest struct {
	CategoryID    uuid.UUID            `json:"categoryId" validate:"required"`
	Name          string               `json:"name" validate:"required,max=100"`
	Description   string               `json:"description" validate:"max=5000"`
	Images        []string             `json:"images" validate:"max=9,dive,url"`
	Price         money.Cents          `json:"price" validate:"gt=0"`
	OriginalPrice *money.Cents         `json:"originalPrice,omitempty"`
	Unit          string               `json:"unit" validate:"required,max=20"`
	Origin        string               `json:"origin" validate:"max=100"`
	SeasonalTag   *string              `json:"seasonalTag,omitempty" validate:"omitempty,max=30"`
	Organic       bool                 `json:"organic"`
	Stock         int                  `json:"stock" validate:"min=0"`
	Status        *enums.ProductStatus `json:"status,omitempty"`
}

type updateProductRequest struct {
	CategoryID    *uuid.UUID   `json:"categoryId,omitempty"`
	Name          *string      `json:"name,omitempty" validate:"omitempty,max=100"`
	Description   *string      `json:"description,omitempty" validate:"omitempty,max=5000"`
	Images        *[]string    `json:"images,omitempty" validate:"omitempty,max=9,dive,url"`
	Price         *money.Cents `json:"price,omitempty" validate:"omitempty,gt=0"`
	OriginalPrice *money.Cents `json:"originalPrice,omitempty"`
	Unit          *string      `json:"unit,omitempty" validate:"omitempty,max=20"`
	Origin        *string      `json:"origin,omitempty" validate:"omitempty,max=100"`
	SeasonalTag   *string      `json:"seasonalTag,omitempty" validate:"omitempty,max=30"`
	Organic       *bool        `json:"organic,omitempty"`
	Stock         *int         `json:"stock,omitempty" validate:"omitempty,min=0"`
}

type productStatusRequest struct {
	Status enums.ProductStatus `json:"status" validate:"required"`
}

// productStockRequest moves stock by delta units, e.g. +50 after a harvest.
type productStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// FarmerListProducts lists the caller's own products in any status.
func FarmerListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.ProductStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		page, err := svc.ListOwn(r.Context(), actor, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func FarmerCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), actor, product.CreateProductInput{
			CategoryID:    body.CategoryID,
			Name:          body.Name,
			Description:   body.Description,
			Images:        body.Images,
			Price:         body.Price,
			OriginalPrice: body.OriginalPrice,
			Unit:          body.Unit,
			Origin:        body.Origin,
			SeasonalTag:   body.SeasonalTag,
			Organic:       body.Organic,
			Stock:         body.Stock,
			Status:        body.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func FarmerUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), actor, id, product.UpdateProductInput{
			CategoryID:    body.CategoryID,
			Name:          body.Name,
			Description:   body.Description,
			Images:        body.Images,
			Price:         body.Price,
			OriginalPrice: body.OriginalPrice,
			Unit:          body.Unit,
			Origin:        body.Origin,
			SeasonalTag:   body.SeasonalTag,
			Organic:       body.Organic,
			Stock:         body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func FarmerSetProductStatus(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SetStatus(r.Context(), actor, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func FarmerAdjustProductStock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.AdjustStock(r.Context(), actor, id, body.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func FarmerDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
