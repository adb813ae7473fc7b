package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// Payment tracks a mobile-money deposit for an order. CheckoutRequestID is the
// provider-assigned identifier returned at STK-push initiation; it is unique,
// immutable, and the only key callbacks are reconciled against.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	VendorID          uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	FarmerID          uuid.UUID           `gorm:"column:farmer_id;type:uuid;not null"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	CheckoutRequestID string              `gorm:"column:checkout_request_id;not null;uniqueIndex:payments_checkout_request_id_key"`
	MpesaReceipt      *string             `gorm:"column:mpesa_receipt"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'Pending'"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
