package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/sokohub/sokohub-backend/api/responses"
	"github.com/sokohub/sokohub-backend/internal/webhooks"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
)

// darajaAck is the body the provider expects on a processed delivery.
var darajaAck = map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"}

// MpesaCallback receives the asynchronous STK-push result and reconciles it.
// Unknown ids and duplicate deliveries are acknowledged so the provider stops
// retrying; real processing failures are not, so it tries again.
func MpesaCallback(svc *webhooks.Service, guard *webhooks.IdempotencyGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var callback webhooks.DarajaCallback
		if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback body"))
			return
		}

		result := callback.Result()
		if result.CheckoutRequestID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "checkout request id is required"))
			return
		}

		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, result.CheckoutRequestID)
			if err != nil {
				// Redis being down must not block reconciliation; the
				// database status check still catches duplicates.
				if logg != nil {
					logg.Warn(logg.WithCheckoutRequestID(ctx, result.CheckoutRequestID), "idempotency guard unavailable, falling through")
				}
			} else if seen {
				writeDarajaAck(w)
				return
			}
		}

		if err := svc.Reconcile(ctx, result); err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, result.CheckoutRequestID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		writeDarajaAck(w)
	}
}

func writeDarajaAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(darajaAck)
}
