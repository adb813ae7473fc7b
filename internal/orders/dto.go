package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// PlaceOrderInput captures a vendor's purchase request.
type PlaceOrderInput struct {
	ProduceID uuid.UUID
	Quantity  int
}

// ListFilters narrows an order listing. All filters are conjunctive.
type ListFilters struct {
	Status *enums.OrderStatus
	From   *time.Time
	To     *time.Time
}

// OrderSummary is the listing row returned to vendors. ProduceName falls back
// to "Unknown" when the referenced produce row no longer exists.
type OrderSummary struct {
	ID           uuid.UUID         `gorm:"column:id" json:"id"`
	ProduceID    uuid.UUID         `gorm:"column:produce_id" json:"produce_id"`
	ProduceName  string            `gorm:"column:produce_name" json:"produce_name"`
	FarmerID     uuid.UUID         `gorm:"column:farmer_id" json:"farmer_id"`
	Quantity     int               `gorm:"column:quantity" json:"quantity"`
	TotalPrice   decimal.Decimal   `gorm:"column:total_price" json:"total_price"`
	Status       enums.OrderStatus `gorm:"column:status" json:"status"`
	DepositPaid  bool              `gorm:"column:deposit_paid" json:"deposit_paid"`
	MpesaReceipt *string           `gorm:"column:mpesa_receipt" json:"mpesa_receipt,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"created_at"`
}

// OrderPage is one cursor page of order summaries.
type OrderPage struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}
