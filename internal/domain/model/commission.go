package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionBucket aggregates a vendor's commission for one calendar month.
type CommissionBucket struct {
	VendorID        uuid.UUID
	Month           int
	Year            int
	TotalCommission decimal.Decimal
	TotalSales      decimal.Decimal
	OrderCount      int
}

// CommissionTransaction is one part's contribution to a monthly bucket,
// keyed by (root, part) so a reversal can remove exactly this entry.
type CommissionTransaction struct {
	VendorID    uuid.UUID
	Month       int
	Year        int
	RootID      uuid.UUID
	PartID      uuid.UUID
	Amount      decimal.Decimal
	SalesAmount decimal.Decimal
	CreatedAt   time.Time
}

// StatusNotification is the fire-and-forget payload handed to the
// notification sink after a status write.
type StatusNotification struct {
	OrderNumber    string      `json:"order_number"`
	CustomerEmail  string      `json:"customer_email"`
	NewStatus      OrderStatus `json:"new_status"`
	PreviousStatus OrderStatus `json:"previous_status"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
