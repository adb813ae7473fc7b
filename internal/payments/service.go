package payments

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/mpesa"
)

const (
	accountReference = "SokoHubOrder"
	paymentNarrative = "Payment for produce"
)

type orderReader interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type pushGateway interface {
	InitiateSTKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
}

// InitiateInput captures a vendor's deposit request. Amount is optional and
// defaults to the order's total price.
type InitiateInput struct {
	OrderID uuid.UUID
	Amount  *decimal.Decimal
}

// InitiateResult pairs the recorded payment with the gateway's customer-facing
// acknowledgment.
type InitiateResult struct {
	Payment         *models.Payment `json:"payment"`
	CustomerMessage string          `json:"customer_message"`
}

// Service drives STK-push initiation. Reconciliation of the asynchronous
// callback lives in the webhooks package.
type Service struct {
	repo    *Repository
	orders  orderReader
	gateway pushGateway
	logg    *logger.Logger
}

func NewService(repo *Repository, orders orderReader, gateway pushGateway, logg *logger.Logger) *Service {
	return &Service{repo: repo, orders: orders, gateway: gateway, logg: logg}
}

// Initiate validates the order, fires the STK push, and records a pending
// payment keyed by the returned CheckoutRequestID. The gateway call happens
// outside any database transaction.
func (s *Service) Initiate(ctx context.Context, vendorID uuid.UUID, input InitiateInput) (*InitiateResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.FindOrder(ctx, input.OrderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order: %w", err)
	}
	if order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	if order.DepositPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit already paid")
	}

	// One push in flight per order; otherwise both could complete and the
	// vendor would be charged twice.
	pending, err := s.repo.HasPendingForOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("checking pending payments: %w", err)
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a payment for this order is already awaiting confirmation")
	}

	amount := order.TotalPrice
	if input.Amount != nil {
		amount = *input.Amount
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if amount.GreaterThan(order.TotalPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds order total")
	}

	vendor, err := s.repo.FindVendor(ctx, order.VendorID)
	if err != nil {
		return nil, fmt.Errorf("loading vendor: %w", err)
	}
	farmer, err := s.repo.FindFarmer(ctx, order.FarmerID)
	if err != nil {
		return nil, fmt.Errorf("loading farmer: %w", err)
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	resp, err := s.gateway.InitiateSTKPush(ctx, mpesa.STKPushRequest{
		PayerPhone:       vendor.Phone,
		PayeePhone:       farmer.Phone,
		Amount:           amount,
		AccountReference: accountReference,
		Description:      paymentNarrative,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Accepted() {
		s.logg.Warn(ctx, "stk push rejected by gateway")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected the request").
			WithDetails(map[string]any{"response_description": resp.ResponseDescription})
	}

	payment, err := s.repo.CreatePayment(ctx, &models.Payment{
		OrderID:           order.ID,
		VendorID:          order.VendorID,
		FarmerID:          order.FarmerID,
		Amount:            amount,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            enums.PaymentStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}

	ctx = s.logg.WithCheckoutRequestID(ctx, payment.CheckoutRequestID)
	s.logg.Info(ctx, "payment initiated")
	return &InitiateResult{Payment: payment, CustomerMessage: resp.CustomerMessage}, nil
}

// ListForOrder returns an order's payment history to its owning vendor.
func (s *Service) ListForOrder(ctx context.Context, vendorID, orderID uuid.UUID) ([]models.Payment, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order: %w", err)
	}
	if order.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
	}
	return s.repo.FindByOrder(ctx, orderID)
}
