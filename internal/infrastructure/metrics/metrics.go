package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsPosted   *prometheus.CounterVec
	TransactionsReversed prometheus.Counter
	TransactionDuration  prometheus.Histogram
	TransactionAmount    prometheus.Histogram
	BalanceRecomputes    prometheus.Counter

	// Account metrics
	AccountsOpened    prometheus.Counter
	AccountBalance    *prometheus.GaugeVec
	AccountOperations *prometheus.CounterVec

	// Charge metrics
	ChargesAttached    prometheus.Counter
	ChargesCollected   prometheus.Counter
	ChargesWaived      prometheus.Counter
	ChargesInactivated prometheus.Counter
	ChargeErrors       *prometheus.CounterVec

	// Scheduler metrics
	SchedulerRuns          prometheus.Counter
	SchedulerChargesDue    prometheus.Histogram
	SchedulerChargeSkipped *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transaction metrics
		TransactionsPosted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_transactions_posted_total",
				Help: "Total number of ledger transactions posted by type",
			},
			[]string{"type"},
		),
		TransactionsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_transactions_reversed_total",
			Help: "Total number of ledger transactions reversed",
		}),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "savingsledger_transaction_duration_seconds",
			Help:    "Duration of transaction posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "savingsledger_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		BalanceRecomputes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_balance_recomputes_total",
			Help: "Total number of full running-balance recomputations",
		}),

		// Account metrics
		AccountsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_accounts_opened_total",
			Help: "Total number of savings accounts opened",
		}),
		AccountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "savingsledger_account_balance",
				Help: "Current account balance",
			},
			[]string{"account_id", "currency"},
		),
		AccountOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Charge metrics
		ChargesAttached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_charges_attached_total",
			Help: "Total number of charges attached to accounts",
		}),
		ChargesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_charges_collected_total",
			Help: "Total number of charge payments collected",
		}),
		ChargesWaived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_charges_waived_total",
			Help: "Total number of charges waived",
		}),
		ChargesInactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_charges_inactivated_total",
			Help: "Total number of charges inactivated",
		}),
		ChargeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_charge_errors_total",
				Help: "Total number of charge operation errors by type",
			},
			[]string{"error_type"},
		),

		// Scheduler metrics
		SchedulerRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "savingsledger_scheduler_runs_total",
			Help: "Total number of recurring-charge scheduler runs",
		}),
		SchedulerChargesDue: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "savingsledger_scheduler_charges_due",
			Help:    "Number of due charges processed per scheduler run",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),
		SchedulerChargeSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_scheduler_charges_skipped_total",
				Help: "Due charges the scheduler could not collect, by reason",
			},
			[]string{"reason"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savingsledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savingsledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "savingsledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savingsledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savingsledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
