package router

import (
	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/app"
	"github.com/vendara/marketplace/internal/server/http/handlers"
	"github.com/vendara/marketplace/internal/storage/postgres"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(
	func(f *app.MarketplaceFacade) handlers.MarketplaceFacade { return f },
	func(s *postgres.Storage) handlers.HealthChecker { return s },
	Setup,
)
