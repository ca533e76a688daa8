package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/telemetry"
)

// Module wires the asynchronous notification dispatcher.
var Module = fx.Provide(
	func(sink Sink, cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) *NotificationDispatcher {
		return NewNotificationDispatcher(sink, cfg.NotifyBuffer, cfg.NotifyWorkers, logger, metrics)
	},
)
