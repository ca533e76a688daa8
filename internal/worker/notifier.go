package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/telemetry"
)

const deliveryTimeout = 5 * time.Second

// Sink delivers a single notification to the outside world.
type Sink interface {
	Publish(ctx context.Context, n model.StatusNotification) error
}

// NotificationDispatcher fans status notifications out to a sink from a pool
// of background workers. Enqueueing never blocks the caller: when the buffer
// is full the notification is dropped and counted, a status write must not
// stall on a slow broker.
type NotificationDispatcher struct {
	sink    Sink
	workers int
	logger  *slog.Logger
	metrics *telemetry.Metrics

	queue chan model.StatusNotification
	wg    sync.WaitGroup
	mu    sync.Mutex
	state dispatcherState
}

type dispatcherState int

const (
	stateIdle dispatcherState = iota
	stateRunning
	stateStopped
)

// NewNotificationDispatcher constructs the dispatcher with a bounded queue.
func NewNotificationDispatcher(sink Sink, buffer, workers int, logger *slog.Logger, metrics *telemetry.Metrics) *NotificationDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &NotificationDispatcher{
		sink:    sink,
		workers: workers,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan model.StatusNotification, buffer),
	}
}

// Start launches background delivery workers.
func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateIdle {
		return
	}
	d.state = stateRunning

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop closes the queue and waits for workers to drain it.
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if d.state == stateRunning {
		d.state = stateStopped
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// StatusChanged enqueues a notification without blocking.
func (d *NotificationDispatcher) StatusChanged(_ context.Context, n model.StatusNotification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == stateStopped {
		return
	}

	select {
	case d.queue <- n:
	default:
		d.metrics.NotificationsDropped.Inc()
		d.logger.Warn("notification queue full, dropping",
			slog.String("order", n.OrderNumber),
			slog.String("status", string(n.NewStatus)))
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := d.sink.Publish(ctx, n); err != nil {
			d.logger.Error("notification delivery failed",
				slog.String("order", n.OrderNumber),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}
