package controllers

import (
	"net/http"

	"github.com/farmfresh/farmfresh-backend/api/middleware"
	"github.com/farmfresh/farmfresh-backend/api/responses"
	"github.com/farmfresh/farmfresh-backend/api/validators"
	"github.com/farmfresh/farmfresh-backend/internal/farmers"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

func ListFarmers(svc farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		region := validators.SanitizeString(r.URL.Query().Get("region"), 64)
		page, err := svc.List(r.Context(), region, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetFarmer returns the public storefront of a farm.
func GetFarmer(svc farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "farmer service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "farmerID")
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

func UpdateFarmerProfile(svc farmers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.Actor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body farmers.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateProfile(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
