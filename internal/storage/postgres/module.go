package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.Factory { return s },
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.VendorOrderRepository { return f.VendorOrders() },
		func(f repository.Factory) repository.CommissionRepository { return f.Commissions() },
		func(f repository.Factory) repository.StockRepository { return f.Stock() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
