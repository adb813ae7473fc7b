// Package webhooks reconciles asynchronous payment-provider callbacks against
// the payments and orders recorded at initiation time.
package webhooks

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/internal/payments"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
)

// resultCodeSuccess is the provider's "payment completed" result code.
const resultCodeSuccess = 0

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies callback results to payments and their orders. Every
// reconciliation runs in a single transaction so the two rows can never
// disagree.
type Service struct {
	tx       txRunner
	payments *payments.Repository
	orders   *orders.Repository
	logg     *logger.Logger
	metrics  *metrics.ReconciliationMetrics
}

func NewService(tx txRunner, paymentsRepo *payments.Repository, ordersRepo *orders.Repository, logg *logger.Logger, m *metrics.ReconciliationMetrics) *Service {
	return &Service{tx: tx, payments: paymentsRepo, orders: ordersRepo, logg: logg, metrics: m}
}

// Reconcile settles one callback delivery. Unknown checkout request ids and
// repeat deliveries for already-settled payments are acknowledged without
// changing anything; the provider retries on any other response.
func (s *Service) Reconcile(ctx context.Context, result CallbackResult) error {
	if strings.TrimSpace(result.CheckoutRequestID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout request id is required")
	}

	ctx = s.logg.WithCheckoutRequestID(ctx, result.CheckoutRequestID)
	start := time.Now()

	var outcome string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paymentsRepo := s.payments.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		payment, err := paymentsRepo.FindByCheckoutRequestID(ctx, result.CheckoutRequestID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Warn(ctx, "callback references unknown checkout request id")
				outcome = metrics.OutcomeUnknown
				return nil
			}
			return fmt.Errorf("loading payment: %w", err)
		}

		ctx = s.logg.WithOrderID(ctx, payment.OrderID.String())
		if payment.Status.IsTerminal() {
			s.logg.Info(ctx, "duplicate callback for settled payment ignored")
			outcome = metrics.OutcomeDuplicate
			return nil
		}

		if result.ResultCode == resultCodeSuccess {
			flipped, err := paymentsRepo.MarkTerminal(ctx, payment.ID, enums.PaymentStatusCompleted, result.MpesaReceipt, nil)
			if err != nil {
				return fmt.Errorf("completing payment: %w", err)
			}
			if !flipped {
				outcome = metrics.OutcomeDuplicate
				return nil
			}

			confirmed, err := ordersRepo.ConfirmDeposit(ctx, payment.OrderID, result.MpesaReceipt)
			if err != nil {
				return fmt.Errorf("confirming order: %w", err)
			}
			if !confirmed {
				s.logg.Warn(ctx, "payment completed but order already left pending")
			}
			outcome = metrics.OutcomeCompleted
			s.logg.Info(ctx, "payment completed, order confirmed")
			return nil
		}

		reason := result.ResultDesc
		flipped, err := paymentsRepo.MarkTerminal(ctx, payment.ID, enums.PaymentStatusFailed, nil, &reason)
		if err != nil {
			return fmt.Errorf("failing payment: %w", err)
		}
		if !flipped {
			outcome = metrics.OutcomeDuplicate
			return nil
		}

		moved, err := ordersRepo.UpdateOrderStatus(ctx, payment.OrderID, enums.OrderStatusPending, enums.OrderStatusFailed)
		if err != nil {
			return fmt.Errorf("failing order: %w", err)
		}
		if !moved {
			s.logg.Warn(ctx, "payment failed but order already left pending")
		}
		outcome = metrics.OutcomeFailed
		s.logg.Info(ctx, "payment failed, order marked failed")
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncOutcome(outcome)
	s.metrics.ObserveDuration(outcome, time.Since(start))
	return nil
}
