package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// Repository owns payment persistence plus the account lookups payment
// initiation needs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client.DB()}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreatePayment persists a new payment row.
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// FindByCheckoutRequestID loads the payment a gateway callback refers to.
func (r *Repository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "checkout_request_id = ?", checkoutRequestID).
		Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByOrder returns the payments recorded for an order, newest first.
func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasPendingForOrder reports whether the order already has a payment awaiting
// its gateway callback.
func (r *Repository) HasPendingForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusPending).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkTerminal moves a still-pending payment to a terminal status, recording
// the receipt or failure reason. Returns false when the payment already left
// Pending, which makes duplicate callback deliveries harmless.
func (r *Repository) MarkTerminal(ctx context.Context, paymentID uuid.UUID, status enums.PaymentStatus, receipt, failureReason *string) (bool, error) {
	updates := map[string]any{
		"status":         status,
		"mpesa_receipt":  receipt,
		"failure_reason": failureReason,
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, enums.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindVendor loads a vendor account.
func (r *Repository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindFarmer loads a farmer account.
func (r *Repository) FindFarmer(ctx context.Context, farmerID uuid.UUID) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := r.db.WithContext(ctx).First(&farmer, "id = ?", farmerID).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}
