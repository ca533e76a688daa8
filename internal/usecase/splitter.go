package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/domain/repository"
)

// OrderSplitter decomposes a newly placed order into an admin part plus one
// vendor part per vendor. It runs once per root, at checkout forwarding time.
type OrderSplitter struct {
	orders         repository.OrderRepository
	vendorOrders   repository.VendorOrderRepository
	commissions    repository.CommissionRepository
	commissionRate decimal.Decimal
	logger         *slog.Logger
}

// NewOrderSplitter constructs OrderSplitter. commissionRate is the platform
// commission fraction applied to a vendor part's total at placement.
func NewOrderSplitter(
	orders repository.OrderRepository,
	vendorOrders repository.VendorOrderRepository,
	commissions repository.CommissionRepository,
	commissionRate decimal.Decimal,
	logger *slog.Logger,
) *OrderSplitter {
	return &OrderSplitter{
		orders:         orders,
		vendorOrders:   vendorOrders,
		commissions:    commissions,
		commissionRate: commissionRate,
		logger:         logger,
	}
}

// Split creates the fulfillment parts of root. Part creation is deliberately
// not transactional: a failed vendor part is logged and skipped, previously
// created parts remain, and the root stays usable with whatever succeeded.
// Re-invoking on an already-split root is a caller error.
func (s *OrderSplitter) Split(ctx context.Context, root *model.Order) ([]model.OrderPart, error) {
	if !root.IsRoot() {
		return nil, domainErrors.ErrNotRoot
	}
	if root.Split {
		return nil, domainErrors.ErrOrderAlreadySplit
	}

	adminItems, vendorItems, vendorSeen := groupItems(root.Items)
	groups := len(vendorSeen)
	if len(adminItems) > 0 {
		groups++
	}
	if groups < 2 {
		// Single fulfillment group, nothing to decompose.
		return nil, nil
	}

	parts := make([]model.OrderPart, 0, groups)

	if len(adminItems) > 0 {
		part, err := s.createAdminPart(ctx, root, adminItems)
		if err != nil {
			s.logger.Warn("admin part creation failed",
				slog.String("order", root.Number),
				slog.String("error", err.Error()),
			)
		} else {
			parts = append(parts, *part)
		}
	}

	for _, vendorID := range vendorSeen {
		part, err := s.createVendorPart(ctx, root, vendorID, vendorItems[vendorID])
		if err != nil {
			s.logger.Warn("vendor part creation failed",
				slog.String("order", root.Number),
				slog.String("vendor", vendorID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		parts = append(parts, *part)
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("split order %s: no part could be created", root.Number)
	}

	if err := s.orders.MarkSplit(ctx, root.ID); err != nil {
		return parts, fmt.Errorf("mark order %s split: %w", root.Number, err)
	}
	root.Split = true

	return parts, nil
}

// groupItems partitions line items into the admin subset and per-vendor
// subsets, preserving first-seen vendor order.
func groupItems(items []model.OrderItem) ([]model.OrderItem, map[uuid.UUID][]model.OrderItem, []uuid.UUID) {
	var adminItems []model.OrderItem
	vendorItems := make(map[uuid.UUID][]model.OrderItem)
	var vendorSeen []uuid.UUID

	for _, item := range items {
		if item.VendorID == nil {
			adminItems = append(adminItems, item)
			continue
		}
		id := *item.VendorID
		if _, ok := vendorItems[id]; !ok {
			vendorSeen = append(vendorSeen, id)
		}
		vendorItems[id] = append(vendorItems[id], item)
	}

	return adminItems, vendorItems, vendorSeen
}

func itemsTotal(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *OrderSplitter) createAdminPart(ctx context.Context, root *model.Order, items []model.OrderItem) (*model.OrderPart, error) {
	parentID := root.ID
	part := &model.Order{
		ID:            uuid.New(),
		Number:        root.Number + "-admin",
		ParentID:      &parentID,
		OrderType:     root.OrderType,
		PartialType:   model.PartialAdmin,
		Status:        root.Status,
		CustomerID:    root.CustomerID,
		CustomerEmail: root.CustomerEmail,
		Items:         items,
		TotalAmount:   itemsTotal(items),
	}
	if err := s.orders.Create(ctx, part); err != nil {
		return nil, err
	}
	normalized := model.PartFromOrder(*part)
	return &normalized, nil
}

func (s *OrderSplitter) createVendorPart(ctx context.Context, root *model.Order, vendorID uuid.UUID, items []model.OrderItem) (*model.OrderPart, error) {
	total := itemsTotal(items)
	part := &model.VendorOrder{
		ID:               uuid.New(),
		ParentID:         root.ID,
		VendorID:         vendorID,
		Number:           root.Number,
		Status:           root.Status,
		Items:            items,
		TotalAmount:      total,
		CommissionAmount: total.Mul(s.commissionRate).Round(2),
	}
	if err := s.vendorOrders.Create(ctx, part); err != nil {
		return nil, err
	}

	s.accrueCommission(ctx, root, part)

	normalized := model.PartFromVendorOrder(*part)
	return &normalized, nil
}

// accrueCommission records the part's commission in the vendor's monthly
// bucket. Best effort: a failed accrual never fails the split.
func (s *OrderSplitter) accrueCommission(ctx context.Context, root *model.Order, part *model.VendorOrder) {
	if !part.CommissionAmount.IsPositive() {
		return
	}
	now := time.Now().UTC()
	err := s.commissions.Accrue(ctx, model.CommissionTransaction{
		VendorID:    part.VendorID,
		Month:       int(now.Month()),
		Year:        now.Year(),
		RootID:      root.ID,
		PartID:      part.ID,
		Amount:      part.CommissionAmount,
		SalesAmount: part.TotalAmount,
	})
	if err != nil {
		s.logger.Warn("commission accrual failed",
			slog.String("order", root.Number),
			slog.String("vendor", part.VendorID.String()),
			slog.String("error", err.Error()),
		)
	}
}
