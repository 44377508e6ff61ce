package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/infrastructure/metrics"
)

// LedgerUseCase provides read-side reporting over an account's ledger:
// end-of-day balance series and consistency verification.
type LedgerUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	cache           Cache
	metrics         *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	cache Cache,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		metrics:         metrics,
	}
}

// EndOfDayBalancesInput represents input for the daily balance report.
type EndOfDayBalancesInput struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// EndOfDayBalances builds the end-of-day balance series for a reporting
// window from the account's persisted transaction list.
func (uc *LedgerUseCase) EndOfDayBalances(ctx context.Context, input EndOfDayBalancesInput) ([]domain.EndOfDayBalance, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	reporting, err := domain.NewDateInterval(input.From, input.To)
	if err != nil {
		return nil, err
	}

	transactions, err := uc.loadAllTransactions(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return domain.EndOfDayBalancesFor(domain.ZeroMoney(account.Currency), account.AllowOverdraft, transactions, reporting)
}

// GetBalance returns the account's current balance, served from cache when
// fresh.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID string) (domain.Money, error) {
	cacheKey := "balance:" + accountID

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, cacheKey); err == nil && data != nil {
			var balance domain.Money
			if err := json.Unmarshal(data, &balance); err == nil {
				return balance, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account.Balance); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, data, balanceCacheTTL)
		}
	}

	return account.Balance, nil
}

// ConsistencyReport is the outcome of a ledger consistency check.
type ConsistencyReport struct {
	AccountID        string
	Consistent       bool
	StoredBalance    domain.Money
	ComputedBalance  domain.Money
	TransactionCount int
}

// CheckConsistency replays the account's full transaction list and compares
// the computed closing balance with the stored account balance.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, accountID string) (ConsistencyReport, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return ConsistencyReport{}, err
	}

	transactions, err := uc.loadAllTransactions(ctx, account.ID)
	if err != nil {
		return ConsistencyReport{}, err
	}

	computed, err := domain.RecalculateBalances(domain.ZeroMoney(account.Currency), account.AllowOverdraft, transactions, time.Now().UTC())
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("replay account %s: %w", account.ID, err)
	}

	if uc.metrics != nil {
		uc.metrics.BalanceRecomputes.Inc()
	}

	return ConsistencyReport{
		AccountID:        account.ID,
		Consistent:       computed.Equal(account.Balance),
		StoredBalance:    account.Balance,
		ComputedBalance:  computed,
		TransactionCount: len(transactions),
	}, nil
}

// loadAllTransactions pages through the account's complete history.
func (uc *LedgerUseCase) loadAllTransactions(ctx context.Context, accountID string) ([]*domain.LedgerTransaction, error) {
	const pageSize = 1000

	var all []*domain.LedgerTransaction

	for offset := 0; ; offset += pageSize {
		page, err := uc.transactionRepo.ListByAccount(ctx, accountID, pageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < pageSize {
			return all, nil
		}
	}
}
