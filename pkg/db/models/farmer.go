package models

import (
	"time"

	"github.com/google/uuid"
)

// Farmer represents a produce seller account.
type Farmer struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Email           string    `gorm:"column:email;not null;uniqueIndex"`
	Phone           string    `gorm:"column:phone;not null"`
	PasswordHash    string    `gorm:"column:password_hash;not null"`
	WhatsappLink    *string   `gorm:"column:whatsapp_link"`
	Location        *string   `gorm:"column:location"`
	KephisCertified bool      `gorm:"column:kephis_certified;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
