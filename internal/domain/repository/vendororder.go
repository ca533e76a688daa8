package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendara/marketplace/internal/domain/model"
)

// VendorOrderRepository describes persistence operations on the preferred
// vendor-part family.
type VendorOrderRepository interface {
	Create(ctx context.Context, order *model.VendorOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.VendorOrder, error)
	// ListByNumber returns vendor parts carrying the given parent order
	// number, supporting legacy lookups that only know the root's number.
	ListByNumber(ctx context.Context, number string) ([]model.VendorOrder, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.VendorOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error
	MarkCommissionReversed(ctx context.Context, id uuid.UUID) error
}
