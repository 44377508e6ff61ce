package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/savingsledger/internal/adapter/http/handler"
	"github.com/iho/savingsledger/internal/adapter/http/middleware"
	"github.com/iho/savingsledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	ChargeHandler      *handler.ChargeHandler
	LedgerHandler      *handler.LedgerHandler
	SchedulerHandler   *handler.SchedulerHandler
	AuditHandler       *handler.AuditHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts and postings against them
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Open)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)

			r.Post("/{id}/deposits", cfg.TransactionHandler.Deposit)
			r.Post("/{id}/withdrawals", cfg.TransactionHandler.Withdraw)
			r.Post("/{id}/interest", cfg.TransactionHandler.PostInterest)
			r.Post("/{id}/holds", cfg.TransactionHandler.Hold)
			r.Get("/{id}/transactions", cfg.TransactionHandler.ListByAccount)

			r.Post("/{id}/charges", cfg.ChargeHandler.Attach)
			r.Get("/{id}/charges", cfg.ChargeHandler.ListByAccount)

			r.Get("/{id}/balance", cfg.LedgerHandler.GetBalance)
			r.Get("/{id}/balances/end-of-day", cfg.LedgerHandler.EndOfDayBalances)
			r.Get("/{id}/consistency", cfg.LedgerHandler.CheckConsistency)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Post("/{id}/reverse", cfg.TransactionHandler.Reverse)
			r.Post("/{id}/release", cfg.TransactionHandler.Release)
		})

		// Charges
		r.Route("/charges", func(r chi.Router) {
			r.Get("/{id}", cfg.ChargeHandler.Get)
			r.Put("/{id}", cfg.ChargeHandler.Update)
			r.Post("/{id}/pay", cfg.ChargeHandler.Pay)
			r.Post("/{id}/waive", cfg.ChargeHandler.Waive)
			r.Post("/{id}/inactivate", cfg.ChargeHandler.Inactivate)
		})

		// Charge catalog
		r.Route("/charge-definitions", func(r chi.Router) {
			r.Post("/", cfg.ChargeHandler.CreateDefinition)
			r.Get("/", cfg.ChargeHandler.ListDefinitions)
			r.Get("/{id}", cfg.ChargeHandler.GetDefinition)
		})

		// Recurring-charge scheduler
		if cfg.SchedulerHandler != nil {
			r.Post("/scheduler/run", cfg.SchedulerHandler.Run)
		}

		// Audit trail
		if cfg.AuditHandler != nil {
			r.Get("/audit-logs", cfg.AuditHandler.List)
		}
	})

	return r
}
