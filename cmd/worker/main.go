package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/rmendes/storefront-api/internal/accounts"
	"github.com/rmendes/storefront-api/internal/cart"
	"github.com/rmendes/storefront-api/internal/catalog"
	"github.com/rmendes/storefront-api/internal/config"
	"github.com/rmendes/storefront-api/internal/messaging"
	"github.com/rmendes/storefront-api/internal/notify"
	"github.com/rmendes/storefront-api/internal/orders"
	"github.com/rmendes/storefront-api/internal/telemetry"
	"github.com/rmendes/storefront-api/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	brokers := cfg.Brokers()
	if brokers == nil {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront-worker", cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(db, nil)
	cartRepo := cart.NewRepository(db)
	accountsRepo := accounts.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	engine := orders.NewEngine(db, cartRepo, catalogRepo, ordersRepo, accountsRepo, nil, nil, logger)

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "notification-worker")
	defer func() { _ = consumer.Close() }()

	handler := worker.NewHandler(engine, notify.NewLogSender(logger), logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notification worker", "brokers", brokers)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
