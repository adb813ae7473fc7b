package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sokohub/sokohub-backend/api/middleware"
	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/api/validators"
	reviewssvc "github.com/sokohub/sokohub-backend/internal/reviews"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

type createReviewRequest struct {
	FarmerID uuid.UUID `json:"farmer_id" validate:"required"`
	Rating   int       `json:"rating" validate:"required,min=1,max=5"`
	Comment  *string   `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// CreateReview records the authenticated vendor's rating of a farmer.
func CreateReview(svc *reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), middleware.ActorIDFromContext(r.Context()), reviewssvc.CreateInput{
			FarmerID: payload.FarmerID,
			Rating:   payload.Rating,
			Comment:  payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// ListFarmerReviews returns a farmer's reviews and average rating.
func ListFarmerReviews(svc *reviewssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := validators.ParsePathUUID(chi.URLParam(r, "farmerID"), "farmerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForFarmer(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
