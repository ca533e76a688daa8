package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

// run starts the fx graph and blocks until a signal arrives or the
// application winds down on its own, then stops it.
func run(ctx context.Context, app *fx.App) {
	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "marketplace startup failed: %v\n", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "marketplace shutdown failed: %v\n", err)
		os.Exit(1)
	}
}
