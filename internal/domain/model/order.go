package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType classifies who fulfills the line items of a root order.
type OrderType string

const (
	OrderTypeAdminOnly  OrderType = "admin_only"
	OrderTypeVendorOnly OrderType = "vendor_only"
	OrderTypeMixed      OrderType = "mixed"
)

// PartialType marks what kind of fulfillment part a generic order record is.
type PartialType string

const (
	PartialNone   PartialType = "none"
	PartialAdmin  PartialType = "admin_part"
	PartialVendor PartialType = "vendor_part"
)

// OrderItem is a single purchased line. VendorID is nil for items fulfilled
// by the platform operator.
type OrderItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	VendorID  *uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	Status    *OrderStatus
}

// Subtotal returns price times quantity for the line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusChange is one entry of the append-only status history of an order.
type StatusChange struct {
	Status    OrderStatus
	Actor     Actor
	Reason    string
	ChangedAt time.Time
}

// Order is a record of the generic order family. A root has no ParentID; a
// part carries ParentID plus a PartialType. Legacy vendor parts live in this
// family with PartialType vendor_part; new vendor parts live in VendorOrder.
type Order struct {
	ID            uuid.UUID
	Number        string
	ParentID      *uuid.UUID
	OrderType     OrderType
	PartialType   PartialType
	Status        OrderStatus
	CustomerID    uuid.UUID
	CustomerEmail string
	// VendorID is set only on legacy vendor parts.
	VendorID *uuid.UUID

	Items       []OrderItem
	TotalAmount decimal.Decimal

	CommissionAmount   decimal.Decimal
	CommissionReversed bool
	CancelledBy        Actor

	// Split marks a root whose parts have been created. Its own Status is
	// advisory after that; the canonical status comes from the resolver.
	Split bool

	History   []StatusChange
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the order is a root rather than a fulfillment part.
func (o *Order) IsRoot() bool {
	return o.ParentID == nil
}

// CancelledState reports whether the order itself records a cancellation,
// either through its status or through the cancelled-by marker left by a
// customer-cancel request.
func (o *Order) CancelledState() bool {
	return o.Status.Cancelled() || o.CancelledBy != ""
}
