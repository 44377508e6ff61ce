package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/infrastructure/metrics"
)

// SchedulerUseCase collects recurring charges that have come due. It is
// driven externally (cron, operator CLI); one run processes one batch.
type SchedulerUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	chargeRepo      ChargeRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retry           RetryPolicy
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewSchedulerUseCase creates a new SchedulerUseCase. A nil retry policy
// means transient collection errors surface immediately.
func NewSchedulerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	chargeRepo ChargeRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retry RetryPolicy,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SchedulerUseCase {
	return &SchedulerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		chargeRepo:      chargeRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		retry:           retry,
		metrics:         metrics,
		logger:          logger,
	}
}

// ApplyChargesResult summarizes one scheduler pass.
type ApplyChargesResult struct {
	Due       int
	Collected int
	Skipped   int
	Failed    int
}

// ApplyChargesDue finds active recurring charges due on or before asOf and
// collects each in its own database transaction, so one failing account does
// not poison the batch. Charges whose time type may not override account
// rules are skipped when the account cannot absorb the debit.
func (uc *SchedulerUseCase) ApplyChargesDue(ctx context.Context, asOf time.Time) (ApplyChargesResult, error) {
	due, err := uc.chargeRepo.ListDue(ctx, domain.StartOfDay(asOf), SchedulerBatchSize)
	if err != nil {
		return ApplyChargesResult{}, err
	}

	result := ApplyChargesResult{Due: len(due)}

	for _, charge := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		switch err := uc.collect(ctx, charge.ID, asOf); {
		case err == nil:
			result.Collected++
		case errors.Is(err, domain.ErrInsufficientBalance):
			result.Skipped++

			uc.logger.Warn().
				Str("charge_id", charge.ID).
				Str("account_id", charge.AccountID).
				Msg("skipping due charge: insufficient balance")

			if uc.metrics != nil {
				uc.metrics.SchedulerChargeSkipped.WithLabelValues("insufficient_balance").Inc()
			}
		case errors.Is(err, domain.ErrChargeNotActive), errors.Is(err, domain.ErrInvalidChargeState):
			// Settled or retired between listing and locking; nothing to do.
			result.Skipped++

			if uc.metrics != nil {
				uc.metrics.SchedulerChargeSkipped.WithLabelValues("stale").Inc()
			}
		default:
			result.Failed++

			uc.logger.Error().
				Err(err).
				Str("charge_id", charge.ID).
				Str("account_id", charge.AccountID).
				Msg("failed to collect due charge")
		}
	}

	if uc.metrics != nil {
		uc.metrics.SchedulerRuns.Inc()
		uc.metrics.SchedulerChargesDue.Observe(float64(result.Due))
	}

	uc.logger.Info().
		Int("due", result.Due).
		Int("collected", result.Collected).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Time("as_of", asOf).
		Msg("recurring charge pass finished")

	return result, nil
}

// collect runs one charge collection through the retry policy. The
// scheduler races interactive writers for the same account rows, so a
// deadlocked collection gets another attempt before counting as failed.
func (uc *SchedulerUseCase) collect(ctx context.Context, chargeID string, asOf time.Time) error {
	if uc.retry == nil {
		return uc.collectOne(ctx, chargeID, asOf)
	}

	return uc.retry.Retry(ctx, func() error {
		return uc.collectOne(ctx, chargeID, asOf)
	})
}

// collectOne locks the charge and its account, re-checks that the charge is
// still due, then posts the fee transaction and settles the charge. Full
// settlement of a recurring fee rolls the due date forward, so the charge
// drops out of the next ListDue pass on its own.
func (uc *SchedulerUseCase) collectOne(ctx context.Context, chargeID string, asOf time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	charge, err := uc.chargeRepo.GetByIDForUpdate(txCtx, tx, chargeID)
	if err != nil {
		return err
	}

	if !charge.Active {
		return domain.ErrChargeNotActive
	}

	if !charge.IsDueOnOrBefore(asOf) || !charge.AmountOutstanding.IsGreaterThanZero() {
		return domain.ErrInvalidChargeState
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, charge.AccountID)
	if err != nil {
		return err
	}

	amount := charge.AmountOutstanding
	if err := account.ValidateDebit(amount, charge.CanOverrideAccountRules()); err != nil {
		return err
	}

	dueDate := asOf
	if charge.DueDate != nil {
		dueDate = *charge.DueDate
	}

	before := charge

	charge, err = charge.Pay(amount)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	paidBy := domain.ChargePaidBy{
		ChargeID:         charge.ID,
		Amount:           amount,
		Penalty:          charge.Penalty,
		CanOverrideRules: charge.CanOverrideAccountRules(),
	}

	var txn *domain.LedgerTransaction
	if before.TimeType == domain.ChargeTimeAnnualFee {
		txn = domain.NewAnnualFee(uc.idGen.Generate(), account.ID, dueDate, amount, paidBy, now)
	} else {
		txn = domain.NewPayCharge(uc.idGen.Generate(), account.ID, dueDate, amount, paidBy, now)
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return err
	}

	if err := uc.chargeRepo.Update(txCtx, tx, charge); err != nil {
		return err
	}

	transactions, err := uc.transactionRepo.ListByAccountForUpdate(txCtx, tx, account.ID)
	if err != nil {
		return err
	}

	closing, err := domain.RecalculateBalances(domain.ZeroMoney(account.Currency), account.AllowOverdraft, transactions, now)
	if err != nil {
		return err
	}

	if err := uc.transactionRepo.UpdateBalances(txCtx, tx, transactions); err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, closing, now); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   charge.ID,
		AggregateType: domain.AggregateTypeCharge,
		EventType:     domain.EventTypeChargePaid,
		Payload: map[string]any{
			"charge_id":      charge.ID,
			"account_id":     account.ID,
			"transaction_id": txn.ID,
			"amount":         amount.Amount().String(),
			"currency":       account.Currency,
			"scheduled":      true,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.ChargesCollected.Inc()
		uc.metrics.TransactionsPosted.WithLabelValues(string(txn.TypeOf)).Inc()
	}

	return nil
}
