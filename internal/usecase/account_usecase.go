package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/infrastructure/metrics"
)

// AccountUseCase handles savings account business logic: opening accounts,
// posting monetary transactions and reversing them. Every mutating operation
// locks the account row, so per-account work is strictly serialized.
type AccountUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	chargeRepo      ChargeRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	chargeRepo ChargeRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		chargeRepo:      chargeRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// OpenAccountInput represents input for opening a savings account.
type OpenAccountInput struct {
	ClientName                string
	Currency                  string
	AllowOverdraft            bool
	OverdraftLimit            decimal.Decimal
	MinRequiredBalance        decimal.Decimal
	EnforceMinRequiredBalance bool
}

// OpenAccount opens a new active savings account.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.SavingsAccount, error) {
	now := time.Now().UTC()

	account := &domain.SavingsAccount{
		ID:                        uc.idGen.Generate(),
		ClientName:                input.ClientName,
		Currency:                  input.Currency,
		Balance:                   domain.ZeroMoney(input.Currency),
		AllowOverdraft:            input.AllowOverdraft,
		OverdraftLimit:            domain.NewMoney(input.Currency, input.OverdraftLimit),
		MinRequiredBalance:        domain.NewMoney(input.Currency, input.MinRequiredBalance),
		EnforceMinRequiredBalance: input.EnforceMinRequiredBalance,
		Status:                    domain.AccountStatusActive,
		ActivatedOn:               domain.StartOfDay(now),
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.CreateTx(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountOpened,
		Payload: map[string]any{
			"account_id":  account.ID,
			"client_name": account.ClientName,
			"currency":    account.Currency,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionAccountOpen, "account", account.ID, nil, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.SavingsAccount, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.SavingsAccount, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}

// PostTransactionInput represents input for a monetary posting.
type PostTransactionInput struct {
	AccountID string
	Amount    decimal.Decimal
	// Date is the value date of the transaction; defaults to today.
	// Backdated postings are allowed and trigger a full balance recompute.
	Date  *time.Time
	RefNo string
}

// Deposit posts a deposit to the account.
func (uc *AccountUseCase) Deposit(ctx context.Context, input PostTransactionInput) (*domain.LedgerTransaction, error) {
	return uc.post(ctx, input, func(account *domain.SavingsAccount, amount domain.Money, date, now time.Time) (*domain.LedgerTransaction, error) {
		return domain.NewDeposit(uc.idGen.Generate(), account.ID, date, amount, input.RefNo, now), nil
	})
}

// PostInterest posts an interest crediting transaction. The interest amount
// itself is computed upstream; this only records it.
func (uc *AccountUseCase) PostInterest(ctx context.Context, input PostTransactionInput) (*domain.LedgerTransaction, error) {
	return uc.post(ctx, input, func(account *domain.SavingsAccount, amount domain.Money, date, now time.Time) (*domain.LedgerTransaction, error) {
		return domain.NewInterestPosting(uc.idGen.Generate(), account.ID, date, amount, now), nil
	})
}

// Withdraw posts a withdrawal, collecting any active per-withdrawal fee
// charges alongside it in the same database transaction.
func (uc *AccountUseCase) Withdraw(ctx context.Context, input PostTransactionInput) (*domain.LedgerTransaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, domain.ErrAccountNotFound
	}

	now := time.Now().UTC()

	date := now
	if input.Date != nil {
		date = *input.Date
	}

	amount := domain.NewMoney(account.Currency, input.Amount)
	if err := account.ValidateDebit(amount, false); err != nil {
		return nil, err
	}

	withdrawal := domain.NewWithdrawal(uc.idGen.Generate(), account.ID, date, amount, input.RefNo, now)

	posted := []*domain.LedgerTransaction{withdrawal}
	if err := uc.transactionRepo.Create(txCtx, tx, withdrawal); err != nil {
		return nil, err
	}

	feeTxns, err := uc.collectWithdrawalFees(txCtx, tx, account, amount, date, now)
	if err != nil {
		return nil, err
	}

	posted = append(posted, feeTxns...)

	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	for _, txn := range posted {
		if err := uc.emitTransactionPosted(txCtx, tx, account, txn, now); err != nil {
			return nil, err
		}
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionTransactionPost, "transaction", withdrawal.ID, nil, withdrawal); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		for _, txn := range posted {
			uc.metrics.TransactionsPosted.WithLabelValues(string(txn.TypeOf)).Inc()
		}

		amt, _ := input.Amount.Float64()
		uc.metrics.TransactionAmount.Observe(amt)
		uc.metrics.TransactionDuration.Observe(time.Since(now).Seconds())
	}

	return withdrawal, nil
}

// collectWithdrawalFees recomputes each active per-withdrawal fee charge
// against the withdrawal amount and settles it with its own fee transaction.
func (uc *AccountUseCase) collectWithdrawalFees(
	ctx context.Context,
	tx Transaction,
	account *domain.SavingsAccount,
	withdrawalAmount domain.Money,
	date, now time.Time,
) ([]*domain.LedgerTransaction, error) {
	charges, err := uc.chargeRepo.ListActiveByAccountForUpdate(ctx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	var posted []*domain.LedgerTransaction

	for _, charge := range charges {
		if charge.TimeType != domain.ChargeTimeWithdrawalFee {
			continue
		}

		charge, err := charge.UpdateWithdrawalFee(withdrawalAmount)
		if err != nil {
			return nil, err
		}

		fee := charge.AmountOutstanding
		if !fee.IsGreaterThanZero() {
			continue
		}

		if err := account.ValidateDebit(fee, charge.CanOverrideAccountRules()); err != nil {
			return nil, err
		}

		charge, err = charge.Pay(fee)
		if err != nil {
			return nil, err
		}

		feeTxn := domain.NewWithdrawalFee(uc.idGen.Generate(), account.ID, date, fee, domain.ChargePaidBy{
			ChargeID:         charge.ID,
			Amount:           fee,
			Penalty:          charge.Penalty,
			CanOverrideRules: charge.CanOverrideAccountRules(),
		}, now)

		if err := uc.transactionRepo.Create(ctx, tx, feeTxn); err != nil {
			return nil, err
		}

		if err := uc.chargeRepo.Update(ctx, tx, charge); err != nil {
			return nil, err
		}

		posted = append(posted, feeTxn)
	}

	return posted, nil
}

// HoldFundsInput represents input for earmarking funds.
type HoldFundsInput struct {
	AccountID   string
	Amount      decimal.Decimal
	LienAllowed bool
}

// HoldFunds posts an amount-hold transaction earmarking funds as unavailable.
func (uc *AccountUseCase) HoldFunds(ctx context.Context, input HoldFundsInput) (*domain.LedgerTransaction, error) {
	return uc.post(ctx, PostTransactionInput{AccountID: input.AccountID, Amount: input.Amount},
		func(account *domain.SavingsAccount, amount domain.Money, date, now time.Time) (*domain.LedgerTransaction, error) {
			if !input.LienAllowed {
				if err := account.ValidateDebit(amount, false); err != nil {
					return nil, err
				}
			}

			return domain.NewHoldAmount(uc.idGen.Generate(), account.ID, date, amount, input.LienAllowed, now), nil
		})
}

// ReleaseFunds posts the offsetting release for an earlier hold.
func (uc *AccountUseCase) ReleaseFunds(ctx context.Context, holdTransactionID string) (*domain.LedgerTransaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	hold, err := uc.transactionRepo.GetByIDForUpdate(txCtx, tx, holdTransactionID)
	if err != nil {
		return nil, err
	}

	if hold.TypeOf != domain.TransactionAmountHold || hold.Reversed {
		return nil, domain.ErrTransactionNotFound
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, hold.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	release := domain.NewReleaseAmount(uc.idGen.Generate(), hold, now, now)

	if err := uc.transactionRepo.Create(txCtx, tx, release); err != nil {
		return nil, err
	}

	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   release.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeHoldReleased,
		Payload: map[string]any{
			"transaction_id": release.ID,
			"hold_id":        hold.ID,
			"account_id":     account.ID,
			"amount":         release.Amount.Amount().String(),
			"currency":       account.Currency,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsPosted.WithLabelValues(string(release.TypeOf)).Inc()
	}

	return release, nil
}

// ReverseTransaction voids a transaction in place and recomputes every
// running balance after it. A transaction that settled a charge also rolls
// the charge back to its pre-settlement state.
func (uc *AccountUseCase) ReverseTransaction(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	txn, err := uc.transactionRepo.GetByIDForUpdate(txCtx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, txn.AccountID)
	if err != nil {
		return nil, err
	}

	if err := txn.Reverse(); err != nil {
		return nil, err
	}

	if paid, ok := txn.ChargePaid(); ok {
		if err := uc.rollbackChargeSettlement(txCtx, tx, txn, paid); err != nil {
			return nil, err
		}
	}

	if err := uc.transactionRepo.Update(txCtx, tx, txn); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionReversed,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"account_id":     account.ID,
			"amount":         txn.Amount.Amount().String(),
			"currency":       account.Currency,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionTransactionReverse, "transaction", txn.ID, nil, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsReversed.Inc()
	}

	return txn, nil
}

// rollbackChargeSettlement undoes the charge-side effect of a reversed
// settlement transaction.
func (uc *AccountUseCase) rollbackChargeSettlement(ctx context.Context, tx Transaction, txn *domain.LedgerTransaction, paid domain.ChargePaidBy) error {
	charge, err := uc.chargeRepo.GetByIDForUpdate(ctx, tx, paid.ChargeID)
	if err != nil {
		return err
	}

	if txn.TypeOf == domain.TransactionWaiveCharge {
		charge, err = charge.UndoWaiver(paid.Amount)
	} else {
		charge, err = charge.UndoPayment(paid.Amount)
	}

	if err != nil {
		return err
	}

	return uc.chargeRepo.Update(ctx, tx, charge)
}

// GetTransaction retrieves a transaction by ID.
func (uc *AccountUseCase) GetTransaction(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactions lists an account's transactions.
func (uc *AccountUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.LedgerTransaction, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.transactionRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// post runs the shared posting flow: lock the account, build the transaction
// through the factory, recompute balances, emit the outbox event and commit.
func (uc *AccountUseCase) post(
	ctx context.Context,
	input PostTransactionInput,
	build func(account *domain.SavingsAccount, amount domain.Money, date, now time.Time) (*domain.LedgerTransaction, error),
) (*domain.LedgerTransaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if input.Amount.GreaterThan(decimal.RequireFromString(MaxTransactionAmount)) {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, domain.ErrAccountNotFound
	}

	now := time.Now().UTC()

	date := now
	if input.Date != nil {
		date = *input.Date
	}

	amount := domain.NewMoney(account.Currency, input.Amount)

	txn, err := build(account, amount, date, now)
	if err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	if err := uc.emitTransactionPosted(txCtx, tx, account, txn, now); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionTransactionPost, "transaction", txn.ID, nil, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsPosted.WithLabelValues(string(txn.TypeOf)).Inc()

		amt, _ := input.Amount.Float64()
		uc.metrics.TransactionAmount.Observe(amt)
		uc.metrics.TransactionDuration.Observe(time.Since(now).Seconds())
	}

	return txn, nil
}

// recomputeAndPersist re-walks the account's full transaction list, persists
// the refreshed balance bookkeeping and the account's closing balance. The
// walk starts from a zero opening balance; the account's stored balance is
// always derived, never a second source of truth.
func (uc *AccountUseCase) recomputeAndPersist(ctx context.Context, tx Transaction, account *domain.SavingsAccount, now time.Time) error {
	transactions, err := uc.transactionRepo.ListByAccountForUpdate(ctx, tx, account.ID)
	if err != nil {
		return err
	}

	closing, err := domain.RecalculateBalances(domain.ZeroMoney(account.Currency), account.AllowOverdraft, transactions, now)
	if err != nil {
		return fmt.Errorf("recompute balances for account %s: %w", account.ID, err)
	}

	if err := uc.transactionRepo.UpdateBalances(ctx, tx, transactions); err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, closing, now); err != nil {
		return err
	}

	account.Balance = closing
	account.Version++

	if uc.metrics != nil {
		uc.metrics.BalanceRecomputes.Inc()

		bal, _ := closing.Amount().Float64()
		uc.metrics.AccountBalance.WithLabelValues(account.ID, account.Currency).Set(bal)
	}

	return nil
}

func (uc *AccountUseCase) emitTransactionPosted(ctx context.Context, tx Transaction, account *domain.SavingsAccount, txn *domain.LedgerTransaction, now time.Time) error {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionPosted,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"account_id":     account.ID,
			"type":           string(txn.TypeOf),
			"amount":         txn.Amount.Amount().String(),
			"currency":       account.Currency,
			"date":           txn.TransactionDate.Format(time.DateOnly),
		},
		CreatedAt: now,
		Published: false,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}

// writeAudit records an audit row inside the database transaction. The
// actor comes from the request context, falling back to "system".
func (uc *AccountUseCase) writeAudit(ctx context.Context, tx Transaction, reqCtx context.Context, action domain.AuditAction, resourceType, resourceID string, before, after any) error {
	if uc.auditRepo == nil {
		return nil
	}

	actor := "system"
	if a, ok := domain.ActorFromContext(reqCtx); ok {
		actor = a
	}

	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       actor,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}

	return nil
}
