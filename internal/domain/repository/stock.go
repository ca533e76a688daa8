package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendara/marketplace/internal/domain/model"
)

// StockRepository is the product stock ledger. Both operations increment
// counters rather than rewriting a snapshot.
type StockRepository interface {
	Restore(ctx context.Context, productID uuid.UUID, quantity int) error
	// ReleaseForPart restores stock for every line item of a part, at most
	// once per part. Repeated calls for the same part are no-ops.
	ReleaseForPart(ctx context.Context, partID uuid.UUID, family model.PartFamily) error
}
