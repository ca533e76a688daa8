package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/domain/repository"
	"github.com/vendara/marketplace/internal/telemetry"
)

// NotificationSink receives fire-and-forget status notifications. A failing
// or slow sink must never fail or delay a status write.
type NotificationSink interface {
	StatusChanged(ctx context.Context, n model.StatusNotification)
}

// StatusChangeResult reports the applied transition.
type StatusChangeResult struct {
	Previous model.OrderStatus
	New      model.OrderStatus
}

// CancelResult reports the outcome of a customer cancellation.
type CancelResult struct {
	NewStatus          model.OrderStatus
	CommissionReversed bool
}

// OrderStatusService is the composition root of the status engine: every
// mutation goes through the transition guard, every read and mutation runs
// the consistency auditor before the resolver.
type OrderStatusService struct {
	orders       repository.OrderRepository
	vendorOrders repository.VendorOrderRepository
	guard        *StatusGuard
	resolver     *StatusResolver
	auditor      *ConsistencyAuditor
	sink         NotificationSink
	logger       *slog.Logger
	metrics      *telemetry.Metrics
}

// NewOrderStatusService constructs OrderStatusService.
func NewOrderStatusService(
	orders repository.OrderRepository,
	vendorOrders repository.VendorOrderRepository,
	guard *StatusGuard,
	resolver *StatusResolver,
	auditor *ConsistencyAuditor,
	sink NotificationSink,
	logger *slog.Logger,
	metrics *telemetry.Metrics,
) *OrderStatusService {
	return &OrderStatusService{
		orders:       orders,
		vendorOrders: vendorOrders,
		guard:        guard,
		resolver:     resolver,
		auditor:      auditor,
		sink:         sink,
		logger:       logger,
		metrics:      metrics,
	}
}

// ChangeStatus applies a requested status change to a part (or an unsplit
// root) after validating it against the transition guard. Entering a
// cancelled-class status from an active one triggers the compensation
// sequence before the write. A mutation on a part triggers recomputation of
// the owning root afterwards.
func (s *OrderStatusService) ChangeStatus(ctx context.Context, partID uuid.UUID, requested string, actor model.Actor, reason string) (*StatusChangeResult, error) {
	status, err := model.NormalizeStatus(requested)
	if err != nil {
		return nil, err
	}
	if !actor.Valid() {
		return nil, domainErrors.ErrUnknownActor
	}

	part, err := s.loadPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	prev := part.Status

	if err := s.guard.CanTransition(prev, status, actor); err != nil {
		return nil, err
	}
	if status == prev {
		return &StatusChangeResult{Previous: prev, New: prev}, nil
	}

	if status.Cancelled() && !prev.Cancelled() {
		s.auditor.CompensatePart(ctx, part.RootID, part)
	}

	if err := s.auditor.updatePartStatus(ctx, part, status, actor, reason); err != nil {
		return nil, err
	}
	part.Status = status
	s.metrics.StatusChanges.WithLabelValues(string(status)).Inc()

	s.notify(ctx, part, status, prev)
	s.recomputeOwner(ctx, part)

	return &StatusChangeResult{Previous: prev, New: status}, nil
}

// CustomerCancel cancels an order on behalf of its customer. The identifier
// may be a root or part id, a root order number, or (legacy) the parent order
// number of a vendor part. Cancellation propagates downstream: the root and
// every sibling part move to cancelled_by_customer and each active part is
// compensated.
func (s *OrderStatusService) CustomerCancel(ctx context.Context, identifier, requesterEmail, reason string) (*CancelResult, error) {
	root, err := s.resolveRoot(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(requesterEmail), root.CustomerEmail) {
		return nil, domainErrors.ErrNotOwner
	}

	res, parts, err := s.auditor.Audit(ctx, root)
	if err != nil {
		return nil, err
	}
	if res.Status.Terminal() {
		return nil, domainErrors.ErrOrderTerminal
	}
	prev := res.Status

	for i := range parts {
		if parts[i].Status.Cancelled() {
			continue
		}
		s.auditor.CompensatePart(ctx, root.ID, &parts[i])
		if err := s.auditor.updatePartStatus(ctx, &parts[i], model.StatusCancelledByCustomer, model.ActorCustomer, reason); err != nil {
			s.logger.Error("cancel propagation failed",
				slog.String("part", parts[i].ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		parts[i].Status = model.StatusCancelledByCustomer
	}

	if len(parts) == 0 {
		// Unsplit order: the root itself carries the line items.
		rootPart := model.PartFromOrder(*root)
		s.auditor.CompensatePart(ctx, root.ID, &rootPart)
	}

	if err := s.orders.UpdateStatus(ctx, root.ID, model.StatusCancelledByCustomer, model.ActorCustomer, reason); err != nil {
		return nil, err
	}
	root.Status = model.StatusCancelledByCustomer
	root.CancelledBy = model.ActorCustomer
	s.metrics.StatusChanges.WithLabelValues(string(model.StatusCancelledByCustomer)).Inc()

	s.sink.StatusChanged(ctx, model.StatusNotification{
		OrderNumber:    root.Number,
		CustomerEmail:  root.CustomerEmail,
		NewStatus:      model.StatusCancelledByCustomer,
		PreviousStatus: prev,
		OccurredAt:     time.Now().UTC(),
	})

	return &CancelResult{NewStatus: model.StatusCancelledByCustomer, CommissionReversed: true}, nil
}

// DisplayStatus returns the canonical resolution for an order id, repairing
// any divergence first. Every read path goes through here so the auditor and
// the resolver are never bypassed. A part id resolves to the part's own
// status for display.
func (s *OrderStatusService) DisplayStatus(ctx context.Context, orderID uuid.UUID) (*Resolution, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
		vo, verr := s.vendorOrders.GetByID(ctx, orderID)
		if verr != nil {
			return nil, verr
		}
		return s.resolver.resolution(vo.Status, nil), nil
	}

	if !order.IsRoot() {
		return s.resolver.resolution(order.Status, nil), nil
	}

	res, _, err := s.auditor.Audit(ctx, order)
	return res, err
}

// RecomputeParent re-audits and re-resolves a root after one of its parts
// changed.
func (s *OrderStatusService) RecomputeParent(ctx context.Context, rootID uuid.UUID) (*Resolution, error) {
	root, err := s.orders.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}
	res, _, err := s.auditor.Audit(ctx, root)
	return res, err
}

// loadPart finds a part (or unsplit root) by id in either family and returns
// its normalized view.
func (s *OrderStatusService) loadPart(ctx context.Context, id uuid.UUID) (*model.OrderPart, error) {
	vo, err := s.vendorOrders.GetByID(ctx, id)
	if err == nil {
		part := model.PartFromVendorOrder(*vo)
		return &part, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	part := model.PartFromOrder(*order)
	return &part, nil
}

// resolveRoot maps an order identifier onto its root record.
func (s *OrderStatusService) resolveRoot(ctx context.Context, identifier string) (*model.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domainErrors.ErrInvalidIdentifier
	}

	if id, err := uuid.Parse(identifier); err == nil {
		order, err := s.orders.GetByID(ctx, id)
		if err == nil {
			return s.climbToRoot(ctx, order)
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}
		vo, verr := s.vendorOrders.GetByID(ctx, id)
		if verr != nil {
			return nil, verr
		}
		return s.orders.GetByID(ctx, vo.ParentID)
	}

	order, err := s.orders.GetByNumber(ctx, identifier)
	if err == nil {
		return s.climbToRoot(ctx, order)
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	// Legacy path: vendor parts carry the parent order number.
	vendorParts, verr := s.vendorOrders.ListByNumber(ctx, identifier)
	if verr != nil {
		return nil, verr
	}
	if len(vendorParts) == 0 {
		return nil, domainErrors.ErrNotFound
	}
	return s.orders.GetByID(ctx, vendorParts[0].ParentID)
}

func (s *OrderStatusService) climbToRoot(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.IsRoot() {
		return order, nil
	}
	return s.orders.GetByID(ctx, *order.ParentID)
}

// notify emits a fire-and-forget status notification addressed to the
// customer of the owning root.
func (s *OrderStatusService) notify(ctx context.Context, part *model.OrderPart, status, prev model.OrderStatus) {
	email := ""
	number := part.Number
	if part.RootID == uuid.Nil {
		// Unsplit root changed directly; the record carries its own email.
		if order, err := s.orders.GetByID(ctx, part.ID); err == nil {
			email = order.CustomerEmail
		}
	} else if root, err := s.orders.GetByID(ctx, part.RootID); err == nil {
		email = root.CustomerEmail
	}
	if email == "" {
		s.logger.Warn("notification skipped, customer email unknown", slog.String("part", part.ID.String()))
		return
	}

	s.sink.StatusChanged(ctx, model.StatusNotification{
		OrderNumber:    number,
		CustomerEmail:  email,
		NewStatus:      status,
		PreviousStatus: prev,
		OccurredAt:     time.Now().UTC(),
	})
}

func (s *OrderStatusService) recomputeOwner(ctx context.Context, part *model.OrderPart) {
	if part.RootID == uuid.Nil {
		return
	}
	root, err := s.orders.GetByID(ctx, part.RootID)
	if err != nil {
		s.logger.Error("load parent for recompute failed",
			slog.String("root", part.RootID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if _, _, err := s.auditor.Audit(ctx, root); err != nil {
		s.logger.Error("parent recompute failed",
			slog.String("root", root.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
