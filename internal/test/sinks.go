package test

import (
	"context"
	"sync"

	"github.com/vendara/marketplace/internal/domain/model"
)

// SinkStub collects notifications emitted by the status service.
type SinkStub struct {
	mu            sync.Mutex
	Notifications []model.StatusNotification
}

func (s *SinkStub) StatusChanged(_ context.Context, n model.StatusNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, n)
}

// Sent returns a snapshot of collected notifications.
func (s *SinkStub) Sent() []model.StatusNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.StatusNotification, len(s.Notifications))
	copy(out, s.Notifications)
	return out
}
