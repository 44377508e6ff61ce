package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.SavingsAccount

	CreateFunc           func(ctx context.Context, account *domain.SavingsAccount) error
	CreateTxFunc         func(ctx context.Context, tx usecase.Transaction, account *domain.SavingsAccount) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.SavingsAccount, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsAccount, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.SavingsAccount, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.SavingsAccount),
	}
}

// Add seeds an account into the backing map.
func (m *MockAccountRepository) Add(account *domain.SavingsAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.SavingsAccount) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.SavingsAccount) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, account)
	}
	return m.Create(ctx, account)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.SavingsAccount, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsAccount, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.SavingsAccount, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.SavingsAccount
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.LedgerTransaction
	order        []string

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	GetByIDForUpdateFunc       func(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerTransaction, error)
	ListByAccountFunc          func(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerTransaction, error)
	ListByAccountForUpdateFunc func(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerTransaction, error)
	UpdateFunc                 func(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error
	UpdateBalancesFunc         func(ctx context.Context, tx usecase.Transaction, txns []*domain.LedgerTransaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.LedgerTransaction),
	}
}

// Add seeds a transaction into the backing map.
func (m *MockTransactionRepository) Add(txn *domain.LedgerTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	m.order = append(m.order, txn.ID)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.Add(txn)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerTransaction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerTransaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	all := m.allForAccount(accountID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockTransactionRepository) ListByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerTransaction, error) {
	if m.ListByAccountForUpdateFunc != nil {
		return m.ListByAccountForUpdateFunc(ctx, tx, accountID)
	}
	return m.allForAccount(accountID), nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, txns []*domain.LedgerTransaction) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, txns)
	}
	return nil
}

func (m *MockTransactionRepository) allForAccount(accountID string) []*domain.LedgerTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.LedgerTransaction
	for _, id := range m.order {
		if txn := m.transactions[id]; txn != nil && txn.AccountID == accountID {
			txns = append(txns, txn)
		}
	}
	return txns
}

// MockChargeRepository is a mock implementation of ChargeRepository.
type MockChargeRepository struct {
	mu      sync.RWMutex
	charges map[string]domain.AccountCharge

	CreateFunc                       func(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error
	GetByIDFunc                      func(ctx context.Context, id string) (domain.AccountCharge, error)
	GetByIDForUpdateFunc             func(ctx context.Context, tx usecase.Transaction, id string) (domain.AccountCharge, error)
	ListByAccountFunc                func(ctx context.Context, accountID string) ([]domain.AccountCharge, error)
	ListActiveByAccountForUpdateFunc func(ctx context.Context, tx usecase.Transaction, accountID string) ([]domain.AccountCharge, error)
	ListDueFunc                      func(ctx context.Context, asOf time.Time, limit int) ([]domain.AccountCharge, error)
	UpdateFunc                       func(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error
}

func NewMockChargeRepository() *MockChargeRepository {
	return &MockChargeRepository{
		charges: make(map[string]domain.AccountCharge),
	}
}

// Add seeds a charge into the backing map.
func (m *MockChargeRepository) Add(charge domain.AccountCharge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[charge.ID] = charge
}

// Stored returns the persisted state of a charge.
func (m *MockChargeRepository) Stored(id string) (domain.AccountCharge, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.charges[id]
	return c, ok
}

func (m *MockChargeRepository) Create(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, charge)
	}
	m.Add(charge)
	return nil
}

func (m *MockChargeRepository) GetByID(ctx context.Context, id string) (domain.AccountCharge, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.charges[id]; ok {
		return c, nil
	}
	return domain.AccountCharge{}, domain.ErrChargeNotFound
}

func (m *MockChargeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (domain.AccountCharge, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockChargeRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.AccountCharge, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var charges []domain.AccountCharge
	for _, c := range m.charges {
		if c.AccountID == accountID {
			charges = append(charges, c)
		}
	}
	return charges, nil
}

func (m *MockChargeRepository) ListActiveByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]domain.AccountCharge, error) {
	if m.ListActiveByAccountForUpdateFunc != nil {
		return m.ListActiveByAccountForUpdateFunc(ctx, tx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var charges []domain.AccountCharge
	for _, c := range m.charges {
		if c.AccountID == accountID && c.Active {
			charges = append(charges, c)
		}
	}
	return charges, nil
}

func (m *MockChargeRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]domain.AccountCharge, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, asOf, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var charges []domain.AccountCharge
	for _, c := range m.charges {
		if c.Active && c.IsRecurring() && c.IsDueOnOrBefore(asOf) {
			charges = append(charges, c)
		}
		if len(charges) == limit {
			break
		}
	}
	return charges, nil
}

func (m *MockChargeRepository) Update(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, charge)
	}
	m.Add(charge)
	return nil
}

// MockChargeDefinitionRepository is a mock implementation of ChargeDefinitionRepository.
type MockChargeDefinitionRepository struct {
	mu          sync.RWMutex
	definitions map[string]domain.ChargeDefinition

	CreateFunc  func(ctx context.Context, def domain.ChargeDefinition) error
	GetByIDFunc func(ctx context.Context, id string) (domain.ChargeDefinition, error)
	ListFunc    func(ctx context.Context) ([]domain.ChargeDefinition, error)
}

func NewMockChargeDefinitionRepository() *MockChargeDefinitionRepository {
	return &MockChargeDefinitionRepository{
		definitions: make(map[string]domain.ChargeDefinition),
	}
}

// Add seeds a definition into the backing map.
func (m *MockChargeDefinitionRepository) Add(def domain.ChargeDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[def.ID] = def
}

func (m *MockChargeDefinitionRepository) Create(ctx context.Context, def domain.ChargeDefinition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, def)
	}
	m.Add(def)
	return nil
}

func (m *MockChargeDefinitionRepository) GetByID(ctx context.Context, id string) (domain.ChargeDefinition, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if def, ok := m.definitions[id]; ok {
		return def, nil
	}
	return domain.ChargeDefinition{}, domain.ErrChargeDefinitionNotFound
}

func (m *MockChargeDefinitionRepository) List(ctx context.Context) ([]domain.ChargeDefinition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var defs []domain.ChargeDefinition
	for _, def := range m.definitions {
		defs = append(defs, def)
	}
	return defs, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns the recorded events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			unpublished = append(unpublished, e)
		}
		if len(unpublished) == limit {
			break
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

// Logs returns the recorded audit rows.
func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MockTransaction is a mock database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock transaction manager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// SequentialIDGenerator generates sequential test IDs. The zero-padded
// counter keeps lexicographic order aligned with creation order, like ULIDs.
type SequentialIDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

func (m *SequentialIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.prefix + string(rune('0'+m.counter/100%10)) + string(rune('0'+m.counter/10%10)) + string(rune('0'+m.counter%10))
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu    sync.RWMutex
	items map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
