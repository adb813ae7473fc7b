package produce

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput is a farmer's new listing.
type CreateInput struct {
	Name        string
	Description *string
	Category    *string
	UnitPrice   decimal.Decimal
	Quantity    int
	Quality     string
}

// UpdateInput carries a partial listing update. Nil fields stay untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	UnitPrice   *decimal.Decimal
	Quantity    *int
	Quality     *string
}

// BrowseFilters narrows the public produce catalogue.
type BrowseFilters struct {
	FarmerID *uuid.UUID
	Category *string
	Quality  *string
	InStock  bool
}
