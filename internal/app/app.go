package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/vendara/marketplace/internal/config"
	"github.com/vendara/marketplace/internal/domain/repository"
	"github.com/vendara/marketplace/internal/usecase"
	"github.com/vendara/marketplace/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newFacade,
		newHTTPServer,
		func(d *worker.NotificationDispatcher) usecase.NotificationSink { return d },
	),
	fx.Invoke(registerLifecycle),
)

func newFacade(status *usecase.OrderStatusService, splitter *usecase.OrderSplitter, orders repository.OrderRepository) *MarketplaceFacade {
	return NewMarketplaceFacade(status, splitter, orders)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Dispatcher *worker.NotificationDispatcher
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting marketplace", slog.String("addr", p.Server.Addr))
			p.Dispatcher.Start()
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Dispatcher.Stop()
			p.Logger.Info("marketplace stopped")
			return nil
		},
	})
}
