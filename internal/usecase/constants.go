package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// MaxTransactionAmount is the maximum amount allowed for a single posting (in decimal string)
	MaxTransactionAmount = "1000000000" // 1 billion

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// SchedulerBatchSize caps how many due charges one scheduler pass collects
	SchedulerBatchSize = 500

	// balanceCacheTTL is how long a computed account balance stays cached
	balanceCacheTTL = 5 * time.Minute
)
