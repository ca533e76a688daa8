package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/domain/repository"
	"github.com/vendara/marketplace/internal/telemetry"
)

const syncReason = "synchronized with cancelled parent order"

// ConsistencyAuditor detects divergence between a root's cancellation state
// and its parts and repairs it. Writes across the two order families and the
// two ledgers are not transactional, so the auditor runs opportunistically on
// every read and mutation path; each repair step is idempotent so repeated
// invocation on an already-repaired graph changes nothing.
type ConsistencyAuditor struct {
	orders       repository.OrderRepository
	vendorOrders repository.VendorOrderRepository
	commissions  repository.CommissionRepository
	stock        repository.StockRepository
	resolver     *StatusResolver
	// legacyRate estimates commission for parts persisted before commission
	// snapshots were stored. See legacyCommissionAmount.
	legacyRate decimal.Decimal
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// NewConsistencyAuditor constructs ConsistencyAuditor.
func NewConsistencyAuditor(
	orders repository.OrderRepository,
	vendorOrders repository.VendorOrderRepository,
	commissions repository.CommissionRepository,
	stock repository.StockRepository,
	resolver *StatusResolver,
	legacyRate decimal.Decimal,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
) *ConsistencyAuditor {
	return &ConsistencyAuditor{
		orders:       orders,
		vendorOrders: vendorOrders,
		commissions:  commissions,
		stock:        stock,
		resolver:     resolver,
		legacyRate:   legacyRate,
		logger:       logger,
		metrics:      metrics,
	}
}

// Audit loads the parts of root from both families, repairs any divergence
// between the root's cancellation state and the parts, and returns the
// canonical resolution computed from the repaired graph.
func (a *ConsistencyAuditor) Audit(ctx context.Context, root *model.Order) (*Resolution, []model.OrderPart, error) {
	if !root.IsRoot() {
		return nil, nil, domainErrors.ErrNotRoot
	}

	parts, err := a.loadParts(ctx, root.ID)
	if err != nil {
		return nil, nil, err
	}

	if root.CancelledState() {
		for i := range parts {
			if parts[i].Status.Cancelled() {
				continue
			}
			a.CompensatePart(ctx, root.ID, &parts[i])
			if err := a.updatePartStatus(ctx, &parts[i], model.StatusCancelledByCustomer, model.ActorSystemSync, syncReason); err != nil {
				a.logger.Error("part sync failed",
					slog.String("part", parts[i].ID.String()),
					slog.String("error", err.Error()),
				)
				continue
			}
			parts[i].Status = model.StatusCancelledByCustomer
			a.metrics.Repairs.Inc()
		}
	}

	res := a.resolver.Resolve(root, parts)

	// Reverse direction: the root's advisory status drifted from what the
	// parts say. Rewrite it so direct readers of the record see the same
	// answer the resolver computes.
	if root.Split && res != nil && res.Status != root.Status {
		if err := a.orders.UpdateStatus(ctx, root.ID, res.Status, model.ActorSystemSync, "recomputed from part statuses"); err != nil {
			a.logger.Error("root status recompute failed",
				slog.String("order", root.Number),
				slog.String("error", err.Error()),
			)
		} else {
			root.Status = res.Status
		}
	}

	return res, parts, nil
}

func (a *ConsistencyAuditor) loadParts(ctx context.Context, rootID uuid.UUID) ([]model.OrderPart, error) {
	generic, err := a.orders.ListPartsByParent(ctx, rootID)
	if err != nil {
		return nil, err
	}
	vendor, err := a.vendorOrders.ListByParent(ctx, rootID)
	if err != nil {
		return nil, err
	}

	parts := make([]model.OrderPart, 0, len(generic)+len(vendor))
	for _, o := range generic {
		parts = append(parts, model.PartFromOrder(o))
	}
	for _, v := range vendor {
		parts = append(parts, model.PartFromVendorOrder(v))
	}
	return model.DedupeParts(parts), nil
}

// CompensatePart runs the compensation sequence for a part that is leaving
// the active statuses: reverse the vendor commission, then restore stock for
// every line item. Both steps take effect at most once per part no matter how
// often they are retried. Both steps are attempted even if the other fails;
// failures are logged and counted but never abort the status write that
// follows (fulfillment-state correctness is prioritized over ledger
// correctness, with out-of-band reconciliation expected to catch up).
func (a *ConsistencyAuditor) CompensatePart(ctx context.Context, rootID uuid.UUID, part *model.OrderPart) {
	a.reverseCommission(ctx, rootID, part)
	a.restoreStock(ctx, part)
}

func (a *ConsistencyAuditor) reverseCommission(ctx context.Context, rootID uuid.UUID, part *model.OrderPart) {
	if part.VendorID == nil || part.CommissionReversed {
		return
	}

	amount := part.CommissionAmount
	if amount.IsZero() {
		amount = a.legacyCommissionAmount(part)
	}
	if !amount.IsPositive() {
		return
	}

	placed := part.CreatedAt.UTC()
	_, err := a.commissions.Reverse(ctx, *part.VendorID, int(placed.Month()), placed.Year(), rootID, part.ID)
	switch {
	case err == nil:
		if err := a.markCommissionReversed(ctx, part); err != nil {
			a.logger.Error("mark commission reversed failed",
				slog.String("part", part.ID.String()),
				slog.String("error", err.Error()),
			)
			a.metrics.CompensationFailures.Inc()
			return
		}
		part.CommissionReversed = true
	case errors.Is(err, domainErrors.ErrNotFound):
		a.logger.Warn("no commission transaction to reverse",
			slog.String("part", part.ID.String()),
			slog.String("vendor", part.VendorID.String()),
		)
	default:
		a.logger.Error("commission reversal failed",
			slog.String("part", part.ID.String()),
			slog.String("error", err.Error()),
		)
		a.metrics.CompensationFailures.Inc()
	}
}

// legacyCommissionAmount re-derives the expected commission from the part
// total and the configured rate. Compatibility shim for parts persisted
// before commission amounts were snapshotted at placement; the stored amount
// is authoritative whenever it is non-zero. Remove once legacy parts are
// backfilled.
func (a *ConsistencyAuditor) legacyCommissionAmount(part *model.OrderPart) decimal.Decimal {
	return part.TotalAmount.Mul(a.legacyRate).Round(2)
}

func (a *ConsistencyAuditor) restoreStock(ctx context.Context, part *model.OrderPart) {
	if err := a.stock.ReleaseForPart(ctx, part.ID, part.Family); err != nil {
		a.logger.Error("stock restore failed",
			slog.String("part", part.ID.String()),
			slog.String("error", err.Error()),
		)
		a.metrics.CompensationFailures.Inc()
	}
}

func (a *ConsistencyAuditor) updatePartStatus(ctx context.Context, part *model.OrderPart, status model.OrderStatus, actor model.Actor, reason string) error {
	switch part.Family {
	case model.FamilyVendorOrder:
		return a.vendorOrders.UpdateStatus(ctx, part.ID, status, actor, reason)
	default:
		return a.orders.UpdateStatus(ctx, part.ID, status, actor, reason)
	}
}

func (a *ConsistencyAuditor) markCommissionReversed(ctx context.Context, part *model.OrderPart) error {
	switch part.Family {
	case model.FamilyVendorOrder:
		return a.vendorOrders.MarkCommissionReversed(ctx, part.ID)
	default:
		return a.orders.MarkCommissionReversed(ctx, part.ID)
	}
}
