package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

// Repository owns order and stock persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the shared client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client.DB()}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProduce loads a produce row by id.
func (r *Repository) FindProduce(ctx context.Context, produceID uuid.UUID) (*models.Produce, error) {
	var produce models.Produce
	if err := r.db.WithContext(ctx).First(&produce, "id = ?", produceID).Error; err != nil {
		return nil, err
	}
	return &produce, nil
}

// DecrementProduceQuantity atomically reserves stock. It returns false when the
// remaining quantity is insufficient, leaving the row untouched.
func (r *Repository) DecrementProduceQuantity(ctx context.Context, produceID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Produce{}).
		Where("id = ? AND quantity >= ?", produceID, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementProduceQuantity returns previously reserved stock to the pool.
func (r *Repository) IncrementProduceQuantity(ctx context.Context, produceID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Produce{}).
		Where("id = ?", produceID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).
		Error
}

// CreateOrder persists a new order row.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindOrder loads an order by id.
func (r *Repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus flips an order's status only when it still holds the
// expected current status. Returns false when another writer got there first.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ConfirmDeposit marks a still-pending order as confirmed with its deposit
// paid, recording the mobile-money receipt. Returns false when the order
// already left Pending.
func (r *Repository) ConfirmDeposit(ctx context.Context, orderID uuid.UUID, receipt *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":        enums.OrderStatusConfirmed,
			"deposit_paid":  true,
			"mpesa_receipt": receipt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

const summaryColumns = "orders.id, orders.produce_id, COALESCE(produce.name, 'Unknown') AS produce_name, " +
	"orders.farmer_id, orders.quantity, orders.total_price, orders.status, orders.deposit_paid, " +
	"orders.mpesa_receipt, orders.created_at"

// ListByVendor returns one cursor page of the vendor's orders, newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, filters ListFilters, cursor *pagination.Cursor, limit int) ([]OrderSummary, error) {
	query := r.db.WithContext(ctx).
		Table("orders").
		Select(summaryColumns).
		Joins("LEFT JOIN produce ON produce.id = orders.produce_id").
		Where("orders.vendor_id = ?", vendorID)

	if filters.Status != nil {
		query = query.Where("orders.status = ?", *filters.Status)
	}
	if filters.From != nil {
		query = query.Where("orders.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("orders.created_at <= ?", *filters.To)
	}
	if cursor != nil {
		query = query.Where(
			"orders.created_at < ? OR (orders.created_at = ? AND orders.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var summaries []OrderSummary
	err := query.
		Order("orders.created_at DESC, orders.id DESC").
		Limit(limit).
		Find(&summaries).
		Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetSummary loads one order summary scoped to the owning vendor.
func (r *Repository) GetSummary(ctx context.Context, vendorID, orderID uuid.UUID) (*OrderSummary, error) {
	var summary OrderSummary
	err := r.db.WithContext(ctx).
		Table("orders").
		Select(summaryColumns).
		Joins("LEFT JOIN produce ON produce.id = orders.produce_id").
		Where("orders.id = ? AND orders.vendor_id = ?", orderID, vendorID).
		Take(&summary).
		Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
