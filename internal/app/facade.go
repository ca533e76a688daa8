package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/usecase"
)

// MarketplaceFacade exposes the order status engine to transport layers.
type MarketplaceFacade struct {
	status   *usecase.OrderStatusService
	splitter *usecase.OrderSplitter
	orders   orderLoader
}

type orderLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

func NewMarketplaceFacade(status *usecase.OrderStatusService, splitter *usecase.OrderSplitter, orders orderLoader) *MarketplaceFacade {
	return &MarketplaceFacade{status: status, splitter: splitter, orders: orders}
}

func (f *MarketplaceFacade) ChangeStatus(ctx context.Context, partID uuid.UUID, status, actor, reason string) (*usecase.StatusChangeResult, error) {
	normalized := model.Actor(strings.ToLower(strings.TrimSpace(actor)))
	return f.status.ChangeStatus(ctx, partID, status, normalized, reason)
}

func (f *MarketplaceFacade) Cancel(ctx context.Context, identifier, requesterEmail, reason string) (*usecase.CancelResult, error) {
	return f.status.CustomerCancel(ctx, identifier, requesterEmail, reason)
}

func (f *MarketplaceFacade) Status(ctx context.Context, orderID uuid.UUID) (*usecase.Resolution, error) {
	return f.status.DisplayStatus(ctx, orderID)
}

func (f *MarketplaceFacade) Split(ctx context.Context, rootID uuid.UUID) ([]model.OrderPart, error) {
	root, err := f.orders.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if !root.IsRoot() {
		return nil, domainErrors.ErrNotRoot
	}
	return f.splitter.Split(ctx, root)
}
