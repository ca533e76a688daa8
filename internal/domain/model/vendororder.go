package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorOrder is a vendor fulfillment part in the preferred schema. Number is
// the parent order number, which legacy integrations use for lookups.
type VendorOrder struct {
	ID       uuid.UUID
	ParentID uuid.UUID
	VendorID uuid.UUID
	Number   string
	Status   OrderStatus

	Items       []OrderItem
	TotalAmount decimal.Decimal

	CommissionAmount   decimal.Decimal
	CommissionReversed bool
	CancelledBy        Actor

	History   []StatusChange
	CreatedAt time.Time
	UpdatedAt time.Time
}
