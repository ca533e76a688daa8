package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module provides service metrics registered on the default registry.
var Module = fx.Provide(func() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
})
