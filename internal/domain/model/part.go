package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartFamily names the record family a fulfillment part is stored in.
type PartFamily string

const (
	FamilyOrder       PartFamily = "orders"
	FamilyVendorOrder PartFamily = "vendor_orders"
)

// OrderPart is the storage-shape-independent view of one fulfillment part of
// a split order. The resolver and the consistency auditor operate on this
// type only and never branch on which family a part came from.
type OrderPart struct {
	Family   PartFamily
	ID       uuid.UUID
	RootID   uuid.UUID
	VendorID *uuid.UUID
	Number   string
	Status   OrderStatus

	Items       []OrderItem
	TotalAmount decimal.Decimal

	CommissionAmount   decimal.Decimal
	CommissionReversed bool

	CreatedAt time.Time
}

// Admin reports whether the part is fulfilled by the platform operator.
func (p OrderPart) Admin() bool {
	return p.VendorID == nil
}

// PartFromOrder normalizes a legacy generic-family part.
func PartFromOrder(o Order) OrderPart {
	var root uuid.UUID
	if o.ParentID != nil {
		root = *o.ParentID
	}
	return OrderPart{
		Family:             FamilyOrder,
		ID:                 o.ID,
		RootID:             root,
		VendorID:           o.VendorID,
		Number:             o.Number,
		Status:             o.Status,
		Items:              o.Items,
		TotalAmount:        o.TotalAmount,
		CommissionAmount:   o.CommissionAmount,
		CommissionReversed: o.CommissionReversed,
		CreatedAt:          o.CreatedAt,
	}
}

// PartFromVendorOrder normalizes a preferred-schema vendor part.
func PartFromVendorOrder(v VendorOrder) OrderPart {
	vendorID := v.VendorID
	return OrderPart{
		Family:             FamilyVendorOrder,
		ID:                 v.ID,
		RootID:             v.ParentID,
		VendorID:           &vendorID,
		Number:             v.Number,
		Status:             v.Status,
		Items:              v.Items,
		TotalAmount:        v.TotalAmount,
		CommissionAmount:   v.CommissionAmount,
		CommissionReversed: v.CommissionReversed,
		CreatedAt:          v.CreatedAt,
	}
}

// DedupeParts drops legacy duplicates of parts that exist in both families,
// keyed by (vendor, order number). The preferred vendor_orders record wins so
// a migrated part is never counted twice by the resolver.
func DedupeParts(parts []OrderPart) []OrderPart {
	type key struct {
		vendor string
		number string
	}

	preferred := make(map[key]bool, len(parts))
	for _, p := range parts {
		if p.VendorID == nil {
			continue
		}
		if p.Family == FamilyVendorOrder {
			preferred[key{p.VendorID.String(), p.Number}] = true
		}
	}

	out := make([]OrderPart, 0, len(parts))
	for _, p := range parts {
		if p.VendorID != nil && p.Family == FamilyOrder && preferred[key{p.VendorID.String(), p.Number}] {
			continue
		}
		out = append(out, p)
	}
	return out
}
