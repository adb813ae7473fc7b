package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/api/middleware"
	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/api/validators"
	producesvc "github.com/sokohub/sokohub-backend/internal/produce"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

type createProduceRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *string         `json:"category,omitempty" validate:"omitempty,max=80"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	Quality     string          `json:"quality" validate:"required,max=80"`
}

type updateProduceRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=80"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Quality     *string          `json:"quality,omitempty" validate:"omitempty,max=80"`
}

// CreateProduce lists new produce under the authenticated farmer.
func CreateProduce(svc *producesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProduceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), middleware.ActorIDFromContext(r.Context()), producesvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			UnitPrice:   payload.UnitPrice,
			Quantity:    payload.Quantity,
			Quality:     payload.Quality,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateProduce edits the authenticated farmer's own listing.
func UpdateProduce(svc *producesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		produceID, err := validators.ParsePathUUID(chi.URLParam(r, "produceID"), "produceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProduceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), middleware.ActorIDFromContext(r.Context()), produceID, producesvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			UnitPrice:   payload.UnitPrice,
			Quantity:    payload.Quantity,
			Quality:     payload.Quality,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// GetProduce returns one listing.
func GetProduce(svc *producesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		produceID, err := validators.ParsePathUUID(chi.URLParam(r, "produceID"), "produceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		produce, err := svc.Get(r.Context(), produceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, produce)
	}
}

// BrowseProduce pages through the public catalogue.
func BrowseProduce(svc *producesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		farmerID, err := validators.ParseQueryUUID(r, "farmer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := producesvc.BrowseFilters{
			FarmerID: farmerID,
			InStock:  r.URL.Query().Get("in_stock") == "true",
		}
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			filters.Category = &category
		}
		if quality := strings.TrimSpace(r.URL.Query().Get("quality")); quality != "" {
			filters.Quality = &quality
		}

		page, err := svc.Browse(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
