package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/infrastructure/metrics"
)

// ChargeUseCase handles the lifecycle of charges attached to savings
// accounts: attaching from the catalog, settling, waiving, undoing and
// administrative edits. Settlements post ledger transactions through the
// same locked flow the account usecase uses.
type ChargeUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	chargeRepo      ChargeRepository
	definitionRepo  ChargeDefinitionRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	metrics         *metrics.Metrics
}

// NewChargeUseCase creates a new ChargeUseCase.
func NewChargeUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	chargeRepo ChargeRepository,
	definitionRepo ChargeDefinitionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ChargeUseCase {
	return &ChargeUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		chargeRepo:      chargeRepo,
		definitionRepo:  definitionRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		metrics:         metrics,
	}
}

// AttachChargeInput represents input for attaching a catalog charge to an
// account. Nil override fields inherit from the definition.
type AttachChargeInput struct {
	AccountID          string
	ChargeDefinitionID string
	Amount             *decimal.Decimal
	AppliedBase        decimal.Decimal
	DueDate            *time.Time
	FeeInterval        *int
}

// AttachCharge instantiates a catalog charge definition on an account.
func (uc *ChargeUseCase) AttachCharge(ctx context.Context, input AttachChargeInput) (domain.AccountCharge, error) {
	def, err := uc.definitionRepo.GetByID(ctx, input.ChargeDefinitionID)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return domain.AccountCharge{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	now := time.Now().UTC()

	charge, err := domain.NewAccountCharge(uc.idGen.Generate(), account.ID, def, domain.ChargeAttachment{
		Amount:      input.Amount,
		AppliedBase: input.AppliedBase,
		DueDate:     input.DueDate,
		FeeInterval: input.FeeInterval,
	}, now)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	if err := uc.chargeRepo.Create(txCtx, tx, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionChargeAttach, charge.ID, nil, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.AccountCharge{}, err
	}

	if uc.metrics != nil {
		uc.metrics.ChargesAttached.Inc()
	}

	return charge, nil
}

// PayChargeInput represents input for settling a charge. A zero amount
// settles the full outstanding balance.
type PayChargeInput struct {
	ChargeID string
	Amount   decimal.Decimal
	Date     *time.Time
}

// PayCharge collects a payment against the charge, posting the matching
// ledger transaction. The amount is clamped to the outstanding balance.
func (uc *ChargeUseCase) PayCharge(ctx context.Context, input PayChargeInput) (*domain.LedgerTransaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	charge, err := uc.chargeRepo.GetByIDForUpdate(txCtx, tx, input.ChargeID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, charge.AccountID)
	if err != nil {
		return nil, err
	}

	before := charge

	amount := charge.AmountOutstanding
	if input.Amount.IsPositive() {
		requested := domain.NewMoney(account.Currency, input.Amount)
		if requested.LessThan(amount) {
			amount = requested
		}
	}

	if !amount.IsGreaterThanZero() {
		return nil, domain.ErrInvalidChargeState
	}

	if err := account.ValidateDebit(amount, charge.CanOverrideAccountRules()); err != nil {
		return nil, err
	}

	charge, err = charge.Pay(amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	date := now
	if input.Date != nil {
		date = *input.Date
	}

	txn := uc.newSettlementTransaction(account.ID, before, amount, date, now)

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.chargeRepo.Update(txCtx, tx, charge); err != nil {
		return nil, err
	}

	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
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
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionChargePay, charge.ID, before, charge); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ChargesCollected.Inc()
		uc.metrics.TransactionsPosted.WithLabelValues(string(txn.TypeOf)).Inc()
	}

	return txn, nil
}

// WaiveCharge waives the charge's outstanding amount, recording the waiver
// as a non-monetary ledger entry.
func (uc *ChargeUseCase) WaiveCharge(ctx context.Context, chargeID string) (*domain.LedgerTransaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	charge, err := uc.chargeRepo.GetByIDForUpdate(txCtx, tx, chargeID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, charge.AccountID)
	if err != nil {
		return nil, err
	}

	before := charge
	amount := charge.AmountOutstanding

	if !amount.IsGreaterThanZero() {
		return nil, domain.ErrInvalidChargeState
	}

	charge, err = charge.Waive()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	txn := domain.NewWaiveCharge(uc.idGen.Generate(), account.ID, now, amount, domain.ChargePaidBy{
		ChargeID:         charge.ID,
		Amount:           amount,
		Penalty:          charge.Penalty,
		CanOverrideRules: charge.CanOverrideAccountRules(),
	}, now)

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.chargeRepo.Update(txCtx, tx, charge); err != nil {
		return nil, err
	}

	// The waiver moves no money but still occupies a slot in the balance
	// walk; recompute so its bookkeeping fields are consistent.
	if err := uc.recomputeAndPersist(txCtx, tx, account, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   charge.ID,
		AggregateType: domain.AggregateTypeCharge,
		EventType:     domain.EventTypeChargeWaived,
		Payload: map[string]any{
			"charge_id":  charge.ID,
			"account_id": account.ID,
			"amount":     amount.Amount().String(),
			"currency":   account.Currency,
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionChargeWaive, charge.ID, before, charge); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ChargesWaived.Inc()
	}

	return txn, nil
}

// UpdateChargeInput represents administrative edits to an unpaid charge.
type UpdateChargeInput struct {
	ChargeID    string
	Amount      *decimal.Decimal
	AppliedBase decimal.Decimal
	DueDate     *time.Time
	FeeInterval *int
}

// UpdateCharge edits a charge that has no payments recorded yet.
func (uc *ChargeUseCase) UpdateCharge(ctx context.Context, input UpdateChargeInput) (domain.AccountCharge, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return domain.AccountCharge{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	charge, err := uc.chargeRepo.GetByIDForUpdate(txCtx, tx, input.ChargeID)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	before := charge

	charge, err = charge.Update(domain.ChargeUpdate{
		Amount:      input.Amount,
		AppliedBase: input.AppliedBase,
		DueDate:     input.DueDate,
		FeeInterval: input.FeeInterval,
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.ChargeErrors.WithLabelValues("update").Inc()
		}

		return domain.AccountCharge{}, err
	}

	if err := uc.chargeRepo.Update(txCtx, tx, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionChargeUpdate, charge.ID, before, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.AccountCharge{}, err
	}

	return charge, nil
}

// InactivateCharge terminally retires a charge, writing off anything still
// outstanding.
func (uc *ChargeUseCase) InactivateCharge(ctx context.Context, chargeID string) (domain.AccountCharge, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return domain.AccountCharge{}, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	charge, err := uc.chargeRepo.GetByIDForUpdate(txCtx, tx, chargeID)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	before := charge
	now := time.Now().UTC()

	charge, err = charge.Inactivate(now)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	if err := uc.chargeRepo.Update(txCtx, tx, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := uc.writeAudit(txCtx, tx, ctx, domain.AuditActionChargeInactivate, charge.ID, before, charge); err != nil {
		return domain.AccountCharge{}, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.AccountCharge{}, err
	}

	if uc.metrics != nil {
		uc.metrics.ChargesInactivated.Inc()
	}

	return charge, nil
}

// GetCharge retrieves a charge by ID.
func (uc *ChargeUseCase) GetCharge(ctx context.Context, id string) (domain.AccountCharge, error) {
	return uc.chargeRepo.GetByID(ctx, id)
}

// ListCharges lists an account's charges.
func (uc *ChargeUseCase) ListCharges(ctx context.Context, accountID string) ([]domain.AccountCharge, error) {
	return uc.chargeRepo.ListByAccount(ctx, accountID)
}

// CreateChargeDefinition adds a charge product to the catalog.
func (uc *ChargeUseCase) CreateChargeDefinition(ctx context.Context, def domain.ChargeDefinition) (domain.ChargeDefinition, error) {
	if def.ID == "" {
		def.ID = uc.idGen.Generate()
	}

	if err := uc.definitionRepo.Create(ctx, def); err != nil {
		return domain.ChargeDefinition{}, err
	}

	return def, nil
}

// GetChargeDefinition retrieves a catalog definition by ID.
func (uc *ChargeUseCase) GetChargeDefinition(ctx context.Context, id string) (domain.ChargeDefinition, error) {
	return uc.definitionRepo.GetByID(ctx, id)
}

// ListChargeDefinitions lists the charge catalog.
func (uc *ChargeUseCase) ListChargeDefinitions(ctx context.Context) ([]domain.ChargeDefinition, error) {
	return uc.definitionRepo.List(ctx)
}

// newSettlementTransaction picks the ledger transaction type matching the
// charge being settled: annual fees and withdrawal fees keep their dedicated
// types, everything else posts as a generic charge payment.
func (uc *ChargeUseCase) newSettlementTransaction(accountID string, charge domain.AccountCharge, amount domain.Money, date, now time.Time) *domain.LedgerTransaction {
	paidBy := domain.ChargePaidBy{
		ChargeID:         charge.ID,
		Amount:           amount,
		Penalty:          charge.Penalty,
		CanOverrideRules: charge.CanOverrideAccountRules(),
	}

	id := uc.idGen.Generate()

	switch charge.TimeType {
	case domain.ChargeTimeAnnualFee:
		return domain.NewAnnualFee(id, accountID, date, amount, paidBy, now)
	case domain.ChargeTimeWithdrawalFee:
		return domain.NewWithdrawalFee(id, accountID, date, amount, paidBy, now)
	default:
		return domain.NewPayCharge(id, accountID, date, amount, paidBy, now)
	}
}

// recomputeAndPersist mirrors the account usecase's recomputation after a
// settlement posting.
func (uc *ChargeUseCase) recomputeAndPersist(ctx context.Context, tx Transaction, account *domain.SavingsAccount, now time.Time) error {
	transactions, err := uc.transactionRepo.ListByAccountForUpdate(ctx, tx, account.ID)
	if err != nil {
		return err
	}

	closing, err := domain.RecalculateBalances(domain.ZeroMoney(account.Currency), account.AllowOverdraft, transactions, now)
	if err != nil {
		return err
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
	}

	return nil
}

func (uc *ChargeUseCase) writeAudit(ctx context.Context, tx Transaction, reqCtx context.Context, action domain.AuditAction, chargeID string, before, after any) error {
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
		ResourceType: "charge",
		ResourceID:   chargeID,
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
