package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// Order represents a vendor's purchase of a produce quantity.
// TotalPrice is computed once at placement time and never recomputed, even if
// the produce unit price changes later.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID     uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	FarmerID     uuid.UUID         `gorm:"column:farmer_id;type:uuid;not null"`
	ProduceID    uuid.UUID         `gorm:"column:produce_id;type:uuid;not null"`
	Quantity     int               `gorm:"column:quantity;not null"`
	TotalPrice   decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	DepositPaid  bool              `gorm:"column:deposit_paid;not null;default:false"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'Pending'"`
	MpesaReceipt *string           `gorm:"column:mpesa_receipt"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
