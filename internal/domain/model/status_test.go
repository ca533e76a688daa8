package model

import (
	"errors"
	"testing"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
)

func TestNormalizeStatusAcceptsLegacyCasing(t *testing.T) {
	cases := map[string]OrderStatus{
		"placed":                StatusPlaced,
		"Placed":                StatusPlaced,
		"  SHIPPED ":            StatusShipped,
		"Cancelled":             StatusCancelled,
		"canceled":              StatusCancelled,
		"cancelled_by_customer": StatusCancelledByCustomer,
	}
	for raw, want := range cases {
		got, err := NormalizeStatus(raw)
		if err != nil {
			t.Fatalf("NormalizeStatus(%q): unexpected error %v", raw, err)
		}
		if got != want {
			t.Fatalf("NormalizeStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeStatusRejectsUnknown(t *testing.T) {
	if _, err := NormalizeStatus("returned"); !errors.Is(err, domainErrors.ErrUnknownStatus) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
	if _, err := NormalizeStatus(""); !errors.Is(err, domainErrors.ErrUnknownStatus) {
		t.Fatalf("expected unknown status error for empty input, got %v", err)
	}
}

func TestMostSpecificCancelPriority(t *testing.T) {
	got := MostSpecificCancel([]OrderStatus{StatusCancelled, StatusRejected, StatusCancelledByUser})
	if got != StatusCancelledByUser {
		t.Fatalf("expected cancelled_by_user, got %s", got)
	}

	got = MostSpecificCancel([]OrderStatus{StatusRejected, StatusCancelledByCustomer})
	if got != StatusCancelledByCustomer {
		t.Fatalf("expected cancelled_by_customer to dominate, got %s", got)
	}

	if got = MostSpecificCancel(nil); got != StatusCancelled {
		t.Fatalf("expected fallback to cancelled, got %s", got)
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []OrderStatus{StatusDelivered, StatusCancelled, StatusCancelledByCustomer, StatusCancelledByUser, StatusRejected} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []OrderStatus{StatusPlaced, StatusProcessing, StatusShipped} {
		if s.Terminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}
