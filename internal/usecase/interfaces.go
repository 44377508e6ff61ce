package usecase

import (
	"context"
	"time"

	"github.com/iho/savingsledger/internal/domain"
)

// AccountRepository defines data access for savings accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.SavingsAccount) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.SavingsAccount) error
	GetByID(ctx context.Context, id string) (*domain.SavingsAccount, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.SavingsAccount, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance domain.Money, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.SavingsAccount, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.LedgerTransaction) error
	GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerTransaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerTransaction, error)
	// ListByAccountForUpdate loads the account's full transaction list inside
	// the given database transaction, for balance recomputation.
	ListByAccountForUpdate(ctx context.Context, tx Transaction, accountID string) ([]*domain.LedgerTransaction, error)
	Update(ctx context.Context, tx Transaction, txn *domain.LedgerTransaction) error
	// UpdateBalances persists the balance bookkeeping fields of every
	// transaction touched by a recomputation walk.
	UpdateBalances(ctx context.Context, tx Transaction, txns []*domain.LedgerTransaction) error
}

// ChargeRepository defines data access for account charges. Charges are
// value types; state transitions produce new values the repository persists.
type ChargeRepository interface {
	Create(ctx context.Context, tx Transaction, charge domain.AccountCharge) error
	GetByID(ctx context.Context, id string) (domain.AccountCharge, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (domain.AccountCharge, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.AccountCharge, error)
	// ListActiveByAccountForUpdate locks and returns the account's active
	// charges inside the given database transaction.
	ListActiveByAccountForUpdate(ctx context.Context, tx Transaction, accountID string) ([]domain.AccountCharge, error)
	// ListDue returns active recurring charges due on or before asOf.
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]domain.AccountCharge, error)
	Update(ctx context.Context, tx Transaction, charge domain.AccountCharge) error
}

// ChargeDefinitionRepository defines read access to the charge catalog.
type ChargeDefinitionRepository interface {
	Create(ctx context.Context, def domain.ChargeDefinition) error
	GetByID(ctx context.Context, id string) (domain.ChargeDefinition, error)
	List(ctx context.Context) ([]domain.ChargeDefinition, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// RetryPolicy re-runs an operation that failed transiently, such as a
// deadlock between the charge scheduler and interactive writers.
type RetryPolicy interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique, monotonically sortable IDs. Transaction
// ordering within a day relies on ids sorting in creation order.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
