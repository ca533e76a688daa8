package usecase

import (
	"github.com/vendara/marketplace/internal/domain/model"
)

// Resolution is the canonical status computed for an order, together with the
// part statuses that contributed to it and the derived permission flags.
type Resolution struct {
	Status            model.OrderStatus
	SubStatuses       []model.OrderStatus
	CustomerMayCancel bool
	AdminMayChange    bool
}

// StatusResolver computes the canonical status of a root order from the live
// statuses of its fulfillment parts.
type StatusResolver struct{}

// NewStatusResolver constructs StatusResolver.
func NewStatusResolver() *StatusResolver {
	return &StatusResolver{}
}

// Resolve returns the canonical status for root given its normalized,
// de-duplicated parts. It returns nil when root is itself a part: a part is
// displayed through its own status and callers must resolve the owning root
// instead. When the root has no parts its own status is canonical.
//
// Cancelled parts never block the progress of their siblings: the canonical
// status is computed from the active parts alone, and only when every part
// is cancelled does the order as a whole resolve to a cancelled-class status,
// the most specific one present.
func (r *StatusResolver) Resolve(root *model.Order, parts []model.OrderPart) *Resolution {
	if !root.IsRoot() {
		return nil
	}

	if len(parts) == 0 {
		return r.resolution(root.Status, nil)
	}

	parts = model.DedupeParts(parts)

	statuses := make([]model.OrderStatus, 0, len(parts))
	active := make([]model.OrderStatus, 0, len(parts))
	for _, p := range parts {
		statuses = append(statuses, p.Status)
		if !p.Status.Cancelled() {
			active = append(active, p.Status)
		}
	}

	if len(active) == 0 {
		return r.resolution(model.MostSpecificCancel(statuses), statuses)
	}

	return r.resolution(resolveActive(active), statuses)
}

// resolveActive reduces the non-cancelled part statuses to their lowest
// common denominator along placed -> processing -> shipped -> delivered.
func resolveActive(active []model.OrderStatus) model.OrderStatus {
	var placed, processing, shipped, delivered, other int
	for _, s := range active {
		switch s {
		case model.StatusPlaced:
			placed++
		case model.StatusProcessing:
			processing++
		case model.StatusShipped:
			shipped++
		case model.StatusDelivered:
			delivered++
		default:
			other++
		}
	}

	total := len(active)
	switch {
	case other == 0 && delivered == total:
		return model.StatusDelivered
	case other == 0 && delivered+shipped == total:
		return model.StatusShipped
	case other == 0 && delivered+shipped+processing == total:
		return model.StatusProcessing
	case placed > 0:
		return model.StatusPlaced
	case processing > 0:
		return model.StatusProcessing
	default:
		return model.StatusPlaced
	}
}

func (r *StatusResolver) resolution(status model.OrderStatus, sub []model.OrderStatus) *Resolution {
	return &Resolution{
		Status:            status,
		SubStatuses:       sub,
		CustomerMayCancel: !(status == model.StatusDelivered || status.Cancelled()),
		AdminMayChange:    status != model.StatusCancelledByCustomer,
	}
}
