package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/communications"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/email"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/middleware"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/reservations"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/shipping"
	"github.com/joao-fontenele/storefront/internal/telemetry"
	"github.com/joao-fontenele/storefront/internal/worker"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	instruments, err := telemetry.NewInstruments(otel.Meter(serviceName))
	if err != nil {
		logger.Error("failed to create instruments", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(ctx, "postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var (
		store       session.Store
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		store = session.NewRedisStore(redisClient, session.DefaultTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		store = session.NewMemoryStore()
	}

	clk := clock.NewSystem()
	catalogRepo := catalog.NewRepository(db)

	cartService := cart.NewService(store, catalogRepo)
	arbiter := reservations.NewArbiter(
		reservations.NewPostgresRepository(db),
		catalogRepo,
		clk,
		reservations.WithTTL(cfg.ReservationTTL),
		reservations.WithLogger(logger),
		reservations.WithInstruments(instruments),
	)
	resolver := shipping.NewResolver(shipping.NewRepository(db), cfg.DefaultShippingFee)

	notifier, closeNotifier := newNotifier(cfg, db, logger)
	defer closeNotifier()

	orderService := orders.NewService(
		orders.NewOrderRepository(db),
		catalogRepo,
		resolver,
		cartService,
		clk,
		orders.WithReservations(arbiter),
		orders.WithNotifier(notifier),
		orders.WithInstruments(instruments),
		orders.WithLogger(logger),
	)

	mux := http.NewServeMux()
	registerRoutes(mux, routes{
		cart:         cart.NewHandler(cartService, logger),
		reservations: reservations.NewHandler(arbiter, logger),
		orders:       orders.NewHandler(orderService, logger),
		shipping:     shipping.NewHandler(resolver, logger),
		health:       healthHandler(db, redisClient, logger),
		metrics:      metricsHandler,
	})

	handler := middleware.Chain(mux,
		middleware.Recover(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
		func(next http.Handler) http.Handler { return session.Middleware(cfg.SessionCookieName, next) },
	)

	server := &http.Server{
		Addr:         cfg.Addr("8000"),
		Handler:      otelhttp.NewHandler(handler, serviceName, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "addr", server.Addr, "reservation_ttl", cfg.ReservationTTL.String())
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

// newNotifier publishes order events to Kafka when brokers are configured.
// Without Kafka, emails go out inline through the email service; with
// neither, orders are placed without notifications.
func newNotifier(cfg config.Config, db *sql.DB, logger *slog.Logger) (orders.Notifier, func()) {
	if len(cfg.KafkaBrokers) > 0 {
		created := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderCreated)
		statusChanged := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderStatusChanged)
		logger.Info("publishing order events", "brokers", cfg.KafkaBrokers)
		return messaging.NewOrderEvents(created, statusChanged), func() {
			_ = created.Close()
			_ = statusChanged.Close()
		}
	}

	if cfg.EmailServiceURL != "" {
		logger.Info("sending order notifications inline", "email_service", cfg.EmailServiceURL)
		return worker.NewNotificationHandler(
			email.NewClient(cfg.EmailServiceURL, nil),
			communications.NewRepository(db),
			cfg.AdminEmails,
			logger,
		), func() {}
	}

	logger.Warn("neither KAFKA_BROKERS nor EMAIL_SERVICE_URL set, order notifications disabled")
	return nil, func() {}
}
