package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/savingsledger/internal/adapter/http"
	"github.com/iho/savingsledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/savingsledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/savingsledger/internal/adapter/repository/redis"
	"github.com/iho/savingsledger/internal/infrastructure/config"
	"github.com/iho/savingsledger/internal/infrastructure/eventpublisher"
	"github.com/iho/savingsledger/internal/infrastructure/logger"
	"github.com/iho/savingsledger/internal/infrastructure/metrics"
	"github.com/iho/savingsledger/internal/infrastructure/postgres"
	"github.com/iho/savingsledger/internal/infrastructure/redis"
	"github.com/iho/savingsledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	chargeRepo := postgresRepo.NewChargeRepository(pool)
	definitionRepo := postgresRepo.NewChargeDefinitionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, transactionRepo, chargeRepo, outboxRepo, auditRepo, idGen, m)
	chargeUC := usecase.NewChargeUseCase(txManager, accountRepo, transactionRepo, chargeRepo, definitionRepo, outboxRepo, auditRepo, idGen, m)
	schedulerUC := usecase.NewSchedulerUseCase(txManager, accountRepo, transactionRepo, chargeRepo, outboxRepo, idGen, retrier, m, log)
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, transactionRepo, cache, m)

	// Background workers stop when this context is cancelled.
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Recurring-charge scheduler
	if cfg.SchedulerEnabled {
		go runScheduler(workerCtx, schedulerUC, cfg.SchedulerInterval, log)
	}

	// Initialize handlers and router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(accountUC),
		ChargeHandler:      handler.NewChargeHandler(chargeUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		SchedulerHandler:   handler.NewSchedulerHandler(schedulerUC),
		AuditHandler:       handler.NewAuditHandler(auditRepo),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		Logger:             log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// chargeCollector is the part of the scheduler use case the ticker loop needs.
type chargeCollector interface {
	ApplyChargesDue(ctx context.Context, asOf time.Time) (usecase.ApplyChargesResult, error)
}

// runScheduler drives recurring-charge collection on a fixed interval. One
// pass runs immediately on startup so a restart never delays collection by a
// full interval.
func runScheduler(ctx context.Context, schedulerUC chargeCollector, interval time.Duration, log zerolog.Logger) {
	log.Info().Dur("interval", interval).Msg("recurring-charge scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		result, err := schedulerUC.ApplyChargesDue(ctx, time.Now().UTC())
		if err != nil {
			log.Error().Err(err).Msg("scheduler pass failed")
			return
		}

		log.Info().
			Int("due", result.Due).
			Int("collected", result.Collected).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Msg("scheduler pass completed")
	}

	run()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("recurring-charge scheduler stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
