package usecase

import (
	"fmt"

	"github.com/vendara/marketplace/internal/domain/model"
)

// transitions lists the forward moves each status permits, not counting the
// cancellations every non-terminal status also allows. Terminal statuses map
// to an empty list.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPlaced:     {model.StatusProcessing},
	model.StatusProcessing: {model.StatusShipped},
	model.StatusShipped:    {model.StatusDelivered},
	model.StatusDelivered:  {},

	model.StatusCancelled:           {},
	model.StatusCancelledByCustomer: {},
	model.StatusCancelledByUser:     {},
	model.StatusRejected:            {},
}

// TransitionError reports a rejected status change together with the legal
// next states, so callers can surface them.
type TransitionError struct {
	Current   model.OrderStatus
	Requested model.OrderStatus
	Allowed   []model.OrderStatus
	Reason    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s rejected: %s", e.Current, e.Requested, e.Reason)
}

// StatusGuard validates requested status transitions.
type StatusGuard struct{}

// NewStatusGuard constructs StatusGuard.
func NewStatusGuard() *StatusGuard {
	return &StatusGuard{}
}

// AllowedFrom returns every status reachable from current, including the
// cancelled-class states a non-terminal status may enter.
func (g *StatusGuard) AllowedFrom(current model.OrderStatus) []model.OrderStatus {
	forward, ok := transitions[current]
	if !ok || current.Terminal() {
		return nil
	}
	allowed := make([]model.OrderStatus, 0, len(forward)+4)
	allowed = append(allowed, forward...)
	allowed = append(allowed,
		model.StatusCancelled,
		model.StatusCancelledByCustomer,
		model.StatusCancelledByUser,
		model.StatusRejected,
	)
	return allowed
}

// CanTransition reports whether actor may move a part from current to
// requested. A same-status request is always a permitted no-op. Once a part
// is cancelled_by_customer only the system of record may touch it.
func (g *StatusGuard) CanTransition(current, requested model.OrderStatus, actor model.Actor) error {
	if requested == current {
		return nil
	}

	if current == model.StatusCancelledByCustomer && !actor.System() {
		return &TransitionError{
			Current:   current,
			Requested: requested,
			Allowed:   nil,
			Reason:    "customer cancellation is immutable",
		}
	}

	for _, next := range g.AllowedFrom(current) {
		if next == requested {
			return nil
		}
	}

	reason := "transition not permitted"
	if current.Terminal() {
		reason = fmt.Sprintf("%s is a terminal status", current)
	}
	return &TransitionError{
		Current:   current,
		Requested: requested,
		Allowed:   g.AllowedFrom(current),
		Reason:    reason,
	}
}
