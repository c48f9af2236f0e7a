package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/rmendes/storefront-api/internal/accounts"
	"github.com/rmendes/storefront-api/internal/cart"
	"github.com/rmendes/storefront-api/internal/catalog"
	"github.com/rmendes/storefront-api/internal/chatbot"
	"github.com/rmendes/storefront-api/internal/config"
	"github.com/rmendes/storefront-api/internal/messaging"
	"github.com/rmendes/storefront-api/internal/orders"
	"github.com/rmendes/storefront-api/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Prices and totals are plain JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

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

	var cache *catalog.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		cache = catalog.NewCache(client, cfg.CacheTTL, logger)
	}

	var producer orders.EventPublisher
	if brokers := cfg.Brokers(); brokers != nil {
		p := messaging.NewProducer(brokers, messaging.TopicOrderCreated)
		defer func() { _ = p.Close() }()
		producer = p
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	catalogRepo := catalog.NewRepository(db, cache)
	cartRepo := cart.NewRepository(db)
	accountsRepo := accounts.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	engine := orders.NewEngine(db, cartRepo, catalogRepo, ordersRepo, accountsRepo, cache, producer, logger)

	tokens := accounts.NewTokenMaker(cfg.JWTSecret, cfg.TokenTTL)

	catalogHandler := catalog.NewHandler(catalogRepo, logger)
	cartHandler := cart.NewHandler(cartRepo, logger)
	accountsHandler := accounts.NewHandler(accountsRepo, tokens, logger)
	ordersHandler := orders.NewHandler(engine, logger)
	chatbotHandler := chatbot.NewHandler(chatbot.NewDefaultResponder(), logger)

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(h)
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(accounts.RequireAuth(tokens, h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", public(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", public(catalogHandler.HandleGet))
	mux.HandleFunc("POST /products/{id}/reviews", public(catalogHandler.HandleAddReview))

	mux.HandleFunc("GET /cart", authed(cartHandler.HandleList))
	mux.HandleFunc("POST /cart/add", authed(cartHandler.HandleAdd))
	mux.HandleFunc("PUT /cart/{id}", authed(cartHandler.HandleSetQuantity))
	mux.HandleFunc("DELETE /cart/{id}", authed(cartHandler.HandleRemove))
	mux.HandleFunc("DELETE /cart/clear/all", authed(cartHandler.HandleClear))
	mux.HandleFunc("GET /cart/total", authed(cartHandler.HandleTotal))

	mux.HandleFunc("POST /orders/create", authed(ordersHandler.HandlePlace))
	mux.HandleFunc("GET /orders", authed(ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", authed(ordersHandler.HandleGet))
	mux.HandleFunc("PUT /orders/{id}/status", authed(ordersHandler.HandleUpdateStatus))

	mux.HandleFunc("POST /auth/register", public(accountsHandler.HandleRegister))
	mux.HandleFunc("POST /auth/login", public(accountsHandler.HandleLogin))
	mux.HandleFunc("GET /user/profile", authed(accountsHandler.HandleProfile))
	mux.HandleFunc("PUT /user/profile", authed(accountsHandler.HandleUpdateProfile))

	mux.HandleFunc("POST /chatbot/chat", public(chatbotHandler.HandleChat))
	mux.HandleFunc("GET /chatbot/suggestions", public(chatbotHandler.HandleSuggestions))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
