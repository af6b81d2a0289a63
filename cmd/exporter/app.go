package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skyhook-io/snapshot-exporter/internal/service"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

type App struct {
	cfg           *settings.Config
	mux           *chi.Mux
	engine        *service.Engine
	registry      *service.Registry
	subscriptions *service.SubscriptionService

	server *http.Server
}

func NewApp(cfg *settings.Config, mux *chi.Mux, engine *service.Engine,
	registry *service.Registry, subscriptions *service.SubscriptionService) *App {
	return &App{
		cfg:           cfg,
		mux:           mux,
		engine:        engine,
		registry:      registry,
		subscriptions: subscriptions,
	}
}

func (app *App) Start(ctx context.Context) error {
	app.engine.Start(ctx)

	err := app.subscriptions.Ensure(ctx)
	if err != nil {
		return err
	}

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.mux,
	}

	go func() {
		err := app.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("Notification endpoint failed: %v", err)
		}
	}()

	go app.sweep(ctx)

	logger.Infof("Listening for notifications on port %d", app.cfg.Port)
	return nil
}

func (app *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(app.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := app.registry.Sweep(time.Now().Add(-app.cfg.RetentionWindow))
			if evicted > 0 {
				logger.Infof("Evicted %d snapshot records older than %v", evicted, app.cfg.RetentionWindow)
			}
		}
	}
}

func (app *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := app.server.Shutdown(ctx)

	// drain in-flight notifications before exiting
	app.engine.Stop()

	return err
}
