package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/reservations"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const serviceName = "reservation-cleanup"

func main() {
	dryRun := flag.Bool("dry-run", false, "list expired reservations without deactivating them")
	verbose := flag.Bool("verbose", false, "log each expired reservation and reservation stats")
	interval := flag.Duration("interval", 0, "repeat the sweep on this interval; 0 runs once")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := telemetry.OpenDB(ctx, "postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	arbiter := reservations.NewArbiter(
		reservations.NewPostgresRepository(db),
		catalog.NewRepository(db),
		clock.NewSystem(),
		reservations.WithTTL(cfg.ReservationTTL),
		reservations.WithLogger(logger),
	)

	if *interval <= 0 {
		if err := sweep(ctx, arbiter, logger, *dryRun, *verbose); err != nil {
			logger.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("running scheduled cleanup", "interval", interval.String(), "dry_run", *dryRun)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		if err := sweep(ctx, arbiter, logger, *dryRun, *verbose); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("cleanup stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, arbiter *reservations.Arbiter, logger *slog.Logger, dryRun, verbose bool) error {
	expired, err := arbiter.PendingExpired(ctx)
	if err != nil {
		return err
	}

	if verbose {
		for _, r := range expired {
			logger.Debug("expired reservation",
				"reservation_id", r.ID,
				"session_id", r.SessionID,
				"product", r.ProductName,
				"size", r.SizeName,
				"quantity", r.Quantity,
				"expired_at", r.ExpiresAt,
			)
		}
	}

	if dryRun {
		logger.Info("dry run, no reservations deactivated", "would_clean", len(expired))
	} else {
		cleaned, err := arbiter.CleanupExpired(ctx)
		if err != nil {
			return err
		}
		logger.Info("cleanup complete", "cleaned", cleaned)
	}

	if verbose {
		stats, err := arbiter.Stats(ctx)
		if err != nil {
			return err
		}
		logger.Debug("reservation stats", "active", stats.Active, "expiring_within_hour", stats.ExpiringWithinHour)
	}
	return nil
}
