package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendara/marketplace/internal/domain/model"
)

// CommissionRepository is the monthly-bucket commission ledger.
type CommissionRepository interface {
	// Accrue records a part's commission into the vendor's monthly bucket.
	// Recording the same (root, part) transaction twice is a no-op.
	Accrue(ctx context.Context, tx model.CommissionTransaction) error
	// Reverse removes the transaction keyed by (root, part) from the bucket
	// and decrements the bucket aggregates by its contribution. Returns
	// ErrNotFound when no matching transaction exists.
	Reverse(ctx context.Context, vendorID uuid.UUID, month, year int, rootID, partID uuid.UUID) (*model.CommissionBucket, error)
	GetBucket(ctx context.Context, vendorID uuid.UUID, month, year int) (*model.CommissionBucket, error)
}
