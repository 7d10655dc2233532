package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/boddenberg/moneta-ledger/internal/config"
	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/handler"
	"github.com/boddenberg/moneta-ledger/internal/infra/cache"
	"github.com/boddenberg/moneta-ledger/internal/infra/memory"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/infra/resilience"
	"github.com/boddenberg/moneta-ledger/internal/infra/sqlite"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("database_path", cfg.DatabasePath),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("scheduler_interval", cfg.SchedulerInterval),
		zap.Bool("auto_archive", cfg.AutoArchive),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "moneta-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	var backend port.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		backend = memory.NewStore()
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DatabasePath, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
		}
		backend = db
	default:
		logger.Fatal("unknown store driver", zap.String("store_driver", cfg.StoreDriver))
	}

	store := resilience.NewStore(backend, cfg.StoreDriver, resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}, logger)
	defer store.Close()

	// --- Services ---
	accountCache := cache.New[[]domain.Account](cfg.CacheTTL)
	referenceSvc := service.NewReferenceService(store, accountCache, metrics, logger)
	businessSvc := service.NewBusinessService(store, logger, time.Now)
	recurringSvc := service.NewRecurringService(store, logger)
	schedulerSvc := service.NewSchedulerService(store, referenceSvc, metrics, logger, time.Now, cfg.MaxConcurrency)
	transactionSvc := service.NewTransactionService(store, referenceSvc, logger, time.Now)
	archiveSvc := service.NewArchiveService(store, metrics, logger, time.Now)

	businessSvc.OnBusinessSwitched(func(ctx context.Context, businessID string) {
		schedulerSvc.RunDue(ctx, businessID)
		if cfg.AutoArchive {
			archiveSvc.CheckForArchivableMonths(ctx, businessID)
		}
	})
	businessSvc.OnBusinessDeleted(func(_ context.Context, businessID string) {
		referenceSvc.Forget(businessID)
	})

	// --- Start-up catch-up ---
	startup(context.Background(), store, schedulerSvc, archiveSvc, cfg.AutoArchive, logger)

	// --- Periodic scheduler ---
	stopScheduler := make(chan struct{})
	if cfg.SchedulerInterval > 0 {
		go runPeriodically(cfg.SchedulerInterval, stopScheduler, func() {
			ctx := context.Background()
			report := schedulerSvc.RunActive(ctx)
			if cfg.AutoArchive {
				archiveSvc.CheckForArchivableMonths(ctx, report.BusinessID)
			}
		})
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Businesses:   businessSvc,
		Recurrings:   recurringSvc,
		Scheduler:    schedulerSvc,
		Transactions: transactionSvc,
		Reference:    referenceSvc,
		Archive:      archiveSvc,
	}, store, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	close(stopScheduler)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// startup generates every due occurrence and, when enabled, archives past
// months for all businesses and the no-business context.
func startup(ctx context.Context, store port.Store, scheduler *service.SchedulerService, archive *service.ArchiveService, autoArchive bool, logger *zap.Logger) {
	generated := 0
	for _, report := range scheduler.RunAll(ctx) {
		if report != nil {
			generated += len(report.Generated)
		}
	}

	archived := 0
	if autoArchive {
		businesses, err := store.ListBusinesses(ctx)
		if err != nil {
			logger.Error("failed to list businesses for archive sweep", zap.Error(err))
		}
		ids := []string{""}
		for _, b := range businesses {
			ids = append(ids, b.ID)
		}
		for _, id := range ids {
			archived += len(archive.CheckForArchivableMonths(ctx, id))
		}
	}

	logger.Info("start-up catch-up finished",
		zap.Int("generated", generated),
		zap.Int("archived", archived),
	)
}

func runPeriodically(interval time.Duration, stop <-chan struct{}, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn()
		case <-stop:
			return
		}
	}
}
