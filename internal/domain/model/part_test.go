package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestDedupePartsPrefersVendorOrderFamily(t *testing.T) {
	vendor := uuid.New()
	legacy := OrderPart{Family: FamilyOrder, ID: uuid.New(), VendorID: &vendor, Number: "ORD-1", Status: StatusPlaced}
	migrated := OrderPart{Family: FamilyVendorOrder, ID: uuid.New(), VendorID: &vendor, Number: "ORD-1", Status: StatusShipped}
	admin := OrderPart{Family: FamilyOrder, ID: uuid.New(), Number: "ORD-1-admin", Status: StatusPlaced}

	out := DedupeParts([]OrderPart{legacy, migrated, admin})
	if len(out) != 2 {
		t.Fatalf("expected 2 parts after dedupe, got %d", len(out))
	}
	for _, p := range out {
		if p.ID == legacy.ID {
			t.Fatalf("legacy duplicate survived dedupe")
		}
	}
}

func TestDedupePartsKeepsDistinctVendors(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()
	parts := []OrderPart{
		{Family: FamilyOrder, ID: uuid.New(), VendorID: &v1, Number: "ORD-2"},
		{Family: FamilyVendorOrder, ID: uuid.New(), VendorID: &v2, Number: "ORD-2"},
	}
	if out := DedupeParts(parts); len(out) != 2 {
		t.Fatalf("expected both vendor parts kept, got %d", len(out))
	}
}

func TestPartFromVendorOrderIsNeverAdmin(t *testing.T) {
	v := VendorOrder{ID: uuid.New(), ParentID: uuid.New(), VendorID: uuid.New(), Number: "ORD-3", Status: StatusPlaced}
	part := PartFromVendorOrder(v)
	if part.Admin() {
		t.Fatalf("vendor part reported as admin")
	}
	if part.RootID != v.ParentID {
		t.Fatalf("root id not carried over")
	}
}

func TestPartFromOrderAdminPart(t *testing.T) {
	parent := uuid.New()
	o := Order{ID: uuid.New(), ParentID: &parent, PartialType: PartialAdmin, Number: "ORD-4-admin", Status: StatusProcessing}
	part := PartFromOrder(o)
	if !part.Admin() {
		t.Fatalf("admin part not detected")
	}
	if part.Family != FamilyOrder {
		t.Fatalf("unexpected family %s", part.Family)
	}
}
