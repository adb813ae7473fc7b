package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Produce represents a farmer's sellable stock-keeping unit.
// Quantity is only ever mutated through conditional decrements/increments so
// it can never go negative.
type Produce struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Category    *string         `gorm:"column:category"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	Quality     string          `gorm:"column:quality;not null"`
	FarmerID    uuid.UUID       `gorm:"column:farmer_id;type:uuid;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the irregular plural; the schema table is "produce".
func (Produce) TableName() string {
	return "produce"
}
