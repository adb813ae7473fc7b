package models

import (
	"time"

	"github.com/google/uuid"
)

// Review captures a vendor's rating of a farmer after trading.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	FarmerID  uuid.UUID `gorm:"column:farmer_id;type:uuid;not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
