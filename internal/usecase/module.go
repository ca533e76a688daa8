package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/domain/repository"
	"github.com/vendara/marketplace/internal/telemetry"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewStatusGuard,
	NewStatusResolver,
	newSplitter,
	newAuditor,
	NewOrderStatusService,
)

type splitterParams struct {
	fx.In

	Orders       repository.OrderRepository
	VendorOrders repository.VendorOrderRepository
	Commissions  repository.CommissionRepository
	Config       *config.Config
	Logger       *slog.Logger
}

func newSplitter(p splitterParams) *OrderSplitter {
	return NewOrderSplitter(p.Orders, p.VendorOrders, p.Commissions, p.Config.CommissionRate, p.Logger)
}

type auditorParams struct {
	fx.In

	Orders       repository.OrderRepository
	VendorOrders repository.VendorOrderRepository
	Commissions  repository.CommissionRepository
	Stock        repository.StockRepository
	Resolver     *StatusResolver
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics
}

func newAuditor(p auditorParams) *ConsistencyAuditor {
	return NewConsistencyAuditor(p.Orders, p.VendorOrders, p.Commissions, p.Stock, p.Resolver, p.Config.CommissionRate, p.Logger, p.Metrics)
}
