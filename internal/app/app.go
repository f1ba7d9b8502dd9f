package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	shopcarthandler "shopcarts/internal/handlers/shopcart"
	"shopcarts/internal/routes"
	shopcartservice "shopcarts/internal/service/shopcart"
	"shopcarts/pkg/config"
)

type App struct {
	log    *slog.Logger
	server *http.Server
}

// New wires service, handlers and routes on top of storage.
// A nil publisher disables checkout events.
func New(
	log *slog.Logger,
	cfg config.HTTPConfig,
	storage shopcartservice.ShopcartItemStorage,
	publisher shopcartservice.EventPublisher,
) *App {
	shopcartService := shopcartservice.New(log, storage, publisher)
	shopcartHandler := shopcarthandler.New(log, shopcartService)

	return &App{
		log: log,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      routes.New(log, shopcartHandler).Handler(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run blocks until the server stops. A server closed by Shutdown is not an error.
func (a *App) Run() error {
	const op = "app.Run"

	a.log.Info("Starting http server", slog.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	const op = "app.Shutdown"

	a.log.Info("Stopping http server")

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
