package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements order placement, cancellation, and vendor queries.
type Service struct {
	repo          *Repository
	tx            txRunner
	logg          *logger.Logger
	retryAttempts int
	retryBackoff  time.Duration
}

// NewService wires the order service with its persistence dependencies.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger, cfg config.OrdersConfig) *Service {
	attempts := cfg.PlacementRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := cfg.PlacementRetryBackoff
	if backoff <= 0 {
		backoff = 25 * time.Millisecond
	}
	return &Service{
		repo:          repo,
		tx:            tx,
		logg:          logg,
		retryAttempts: attempts,
		retryBackoff:  backoff,
	}
}

// PlaceOrder reserves stock and records the order in one transaction. The
// total price is frozen from the unit price read inside that transaction.
// Transient transaction conflicts are retried a bounded number of times.
func (s *Service) PlaceOrder(ctx context.Context, vendorID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if input.ProduceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}

	var order *models.Order
	backoff := retry.WithMaxRetries(uint64(s.retryAttempts), retry.NewConstant(s.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		placed, placeErr := s.placeOnce(ctx, vendorID, input)
		if placeErr != nil {
			if db.IsSerializationFailure(placeErr) {
				return retry.RetryableError(placeErr)
			}
			return placeErr
		}
		order = placed
		return nil
	})
	if err != nil {
		if db.IsSerializationFailure(err) {
			s.logg.Warn(ctx, "order placement exhausted conflict retries")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order placement conflicted, please retry")
		}
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order placed")
	return order, nil
}

func (s *Service) placeOnce(ctx context.Context, vendorID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		produce, err := repo.FindProduce(ctx, input.ProduceID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "produce not found")
			}
			return fmt.Errorf("loading produce: %w", err)
		}

		reserved, err := repo.DecrementProduceQuantity(ctx, produce.ID, input.Quantity)
		if err != nil {
			return fmt.Errorf("reserving stock: %w", err)
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
				WithDetails(map[string]any{"available": produce.Quantity, "requested": input.Quantity})
		}

		total := produce.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		order, err = repo.CreateOrder(ctx, &models.Order{
			VendorID:   vendorID,
			FarmerID:   produce.FarmerID,
			ProduceID:  produce.ID,
			Quantity:   input.Quantity,
			TotalPrice: total,
			Status:     enums.OrderStatusPending,
		})
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel releases a pending order and returns its quantity to the produce
// stock. Orders that already left Pending cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, vendorID, orderID uuid.UUID) (*models.Order, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return fmt.Errorf("loading order: %w", err)
		}
		if order.VendorID != vendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		flipped, err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return fmt.Errorf("cancelling order: %w", err)
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order state changed, please retry")
		}

		if err := repo.IncrementProduceQuantity(ctx, order.ProduceID, order.Quantity); err != nil {
			return fmt.Errorf("returning stock: %w", err)
		}

		order.Status = enums.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, cancelled.ID.String())
	s.logg.Info(ctx, "order cancelled, stock returned")
	return cancelled, nil
}

// Get returns one order summary scoped to the requesting vendor.
func (s *Service) Get(ctx context.Context, vendorID, orderID uuid.UUID) (*OrderSummary, error) {
	summary, err := s.repo.GetSummary(ctx, vendorID, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, fmt.Errorf("loading order summary: %w", err)
	}
	return summary, nil
}

// List pages through the vendor's orders, newest first, applying the
// conjunctive status and date-range filters.
func (s *Service) List(ctx context.Context, vendorID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderPage, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range start must not be after its end")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	summaries, err := s.repo.ListByVendor(ctx, vendorID, filters, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	page := &OrderPage{Orders: summaries}
	if len(summaries) > limit {
		page.Orders = summaries[:limit]
		last := page.Orders[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}
