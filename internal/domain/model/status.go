package model

import (
	"strings"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
)

// OrderStatus is the wire-visible lifecycle status shared by root orders and
// their fulfillment parts. Values are case-sensitive and lowercase on the wire.
type OrderStatus string

const (
	StatusPlaced     OrderStatus = "placed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"

	StatusCancelled           OrderStatus = "cancelled"
	StatusCancelledByCustomer OrderStatus = "cancelled_by_customer"
	StatusCancelledByUser     OrderStatus = "cancelled_by_user"
	StatusRejected            OrderStatus = "rejected"
)

// cancelPriority orders cancelled-class statuses from most to least specific.
// When every part of an order is cancelled, the canonical status is the
// highest-priority one present.
var cancelPriority = []OrderStatus{
	StatusCancelledByCustomer,
	StatusCancelledByUser,
	StatusRejected,
	StatusCancelled,
}

var knownStatuses = map[OrderStatus]struct{}{
	StatusPlaced:              {},
	StatusProcessing:          {},
	StatusShipped:             {},
	StatusDelivered:           {},
	StatusCancelled:           {},
	StatusCancelledByCustomer: {},
	StatusCancelledByUser:     {},
	StatusRejected:            {},
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Cancelled reports whether s belongs to the cancelled class.
func (s OrderStatus) Cancelled() bool {
	switch s {
	case StatusCancelled, StatusCancelledByCustomer, StatusCancelledByUser, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions may leave s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s.Cancelled()
}

// MostSpecificCancel returns the highest-priority cancelled-class status
// present in statuses, falling back to plain cancelled.
func MostSpecificCancel(statuses []OrderStatus) OrderStatus {
	present := make(map[OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		present[s] = true
	}
	for _, candidate := range cancelPriority {
		if present[candidate] {
			return candidate
		}
	}
	return StatusCancelled
}

// NormalizeStatus maps a raw stored or requested status value onto the closed
// enum. Legacy records carry capitalized values ("Placed", "Cancelled"); this
// is the single place where that normalization happens.
func NormalizeStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "canceled" { // legacy US spelling
		s = StatusCancelled
	}
	if !s.Valid() {
		return "", domainErrors.ErrUnknownStatus
	}
	return s, nil
}
