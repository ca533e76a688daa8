package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendara/marketplace/internal/domain/model"
)

// OrderRepository describes persistence operations on the generic order
// family (roots, admin parts and legacy vendor parts).
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	ListPartsByParent(ctx context.Context, parentID uuid.UUID) ([]model.Order, error)
	// UpdateStatus rewrites the status, appends a history entry and records
	// the cancelling actor when the new status is cancelled-class.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error
	MarkSplit(ctx context.Context, id uuid.UUID) error
	MarkCommissionReversed(ctx context.Context, id uuid.UUID) error
}
