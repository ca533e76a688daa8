package model

// Actor identifies who requested a status change.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorVendor   Actor = "vendor"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"

	// ActorSystemSync is the system-of-record actor used when the consistency
	// auditor rewrites a diverged part.
	ActorSystemSync Actor = "system_sync"
)

// System reports whether the actor is the system of record. Only system
// actors may touch an order that a customer has cancelled.
func (a Actor) System() bool {
	return a == ActorSystem || a == ActorSystemSync
}

// Valid reports whether a is a known actor.
func (a Actor) Valid() bool {
	switch a {
	case ActorCustomer, ActorVendor, ActorAdmin, ActorSystem, ActorSystemSync:
		return true
	}
	return false
}
