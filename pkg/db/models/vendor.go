package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor represents a produce buyer account.
type Vendor struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Phone        string    `gorm:"column:phone;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Location     *string   `gorm:"column:location"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
