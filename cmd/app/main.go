package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcarts/internal/app"
	"shopcarts/internal/database/psql"
	"shopcarts/internal/database/retrying"
	"shopcarts/internal/events"
	shopcartservice "shopcarts/internal/service/shopcart"
	"shopcarts/pkg/config"
	"shopcarts/pkg/lib/logger"
	"shopcarts/pkg/lib/logger/sl"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, logFile, err := logger.SetupLogger(cfg.HTTP.Env, logger.FileOptionsFromConfig(cfg.Log))
	if err != nil {
		panic(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	storage, err := psql.New(startCtx, log, cfg.Psql.Driver, cfg.ConnectionString())
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	retryingStorage := retrying.New(log, storage, retrying.Options{
		Attempts:    cfg.Retry.Attempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		IsTransient: psql.IsTransient,
	})

	var publisher shopcartservice.EventPublisher
	var rabbit *events.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := events.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("Failed to connect to rabbitmq", sl.Err(err))
			os.Exit(1)
		}
		defer conn.Close()

		rabbit, err = events.NewPublisher(log, conn, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Error("Failed to init event publisher", sl.Err(err))
			os.Exit(1)
		}
		publisher = rabbit
	} else {
		log.Info("RabbitMQ url is empty, checkout events are disabled")
	}

	application := app.New(log, cfg.HTTP, retryingStorage, publisher)

	go func() {
		if err := application.Run(); err != nil {
			log.Error("Application failed to start", sl.Err(err))
			panic(err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGTERM, syscall.SIGINT)
	<-done

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop http server", sl.Err(err))
	}

	if rabbit != nil {
		log.Info("Closing event publisher")
		rabbit.Close()
	}

	log.Info("Closing database")
	storage.Close()

	log.Info("Application stopped")
	logFile.Close()
}
