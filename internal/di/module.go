package di

import (
	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/adapter/notify"
	"github.com/vendara/marketplace/internal/app"
	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/logger"
	"github.com/vendara/marketplace/internal/server/http/router"
	"github.com/vendara/marketplace/internal/storage/postgres"
	"github.com/vendara/marketplace/internal/telemetry"
	"github.com/vendara/marketplace/internal/usecase"
	"github.com/vendara/marketplace/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		telemetry.Module,
		postgres.Module,
		notify.Module,
		worker.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
