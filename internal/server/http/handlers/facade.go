package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/usecase"
)

// StatusFacade encapsulates status operations exposed via HTTP.
type StatusFacade interface {
	ChangeStatus(ctx context.Context, partID uuid.UUID, status, actor, reason string) (*usecase.StatusChangeResult, error)
	Cancel(ctx context.Context, identifier, requesterEmail, reason string) (*usecase.CancelResult, error)
	Status(ctx context.Context, orderID uuid.UUID) (*usecase.Resolution, error)
}

// SplitFacade decomposes a root order into fulfillment parts.
type SplitFacade interface {
	Split(ctx context.Context, rootID uuid.UUID) ([]model.OrderPart, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	StatusFacade
	SplitFacade
}

// HealthChecker verifies backing store connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
