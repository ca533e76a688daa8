package notify

import (
	"context"

	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/worker"
)

// Module wires the Kafka notification producer.
var Module = fx.Options(
	fx.Provide(
		func(cfg *config.Config) *Producer {
			return NewProducer(cfg.KafkaBrokers, cfg.NotifyTopic)
		},
		func(p *Producer) worker.Sink { return p },
	),
	fx.Invoke(func(lc fx.Lifecycle, p *Producer) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return p.Close() },
		})
	}),
)
