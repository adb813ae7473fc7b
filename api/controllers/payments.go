package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/api/middleware"
	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/api/validators"
	paymentssvc "github.com/sokohub/sokohub-backend/internal/payments"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

type initiatePaymentRequest struct {
	OrderID uuid.UUID        `json:"order_id" validate:"required"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

// InitiatePayment fires an STK push for the vendor's pending order.
func InitiatePayment(svc *paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), middleware.ActorIDFromContext(r.Context()), paymentssvc.InitiateInput{
			OrderID: payload.OrderID,
			Amount:  payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

// ListOrderPayments returns an order's payment history to its vendor.
func ListOrderPayments(svc *paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForOrder(r.Context(), middleware.ActorIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
