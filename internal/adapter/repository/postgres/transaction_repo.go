package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, account_id, type, transaction_date, currency, amount, reversed, reversal,
	original_transaction_id, running_balance, cumulative_balance, balance_end_date, balance_number_of_days,
	overdraft_amount, tax_details, charges_paid, ref_no, lien_allowed, created_at`

// taxDetailRecord and chargePaidRecord are the JSONB shapes for the
// transaction's embedded associations. Amounts serialize as plain decimal
// strings; the currency is the row's currency column.
type taxDetailRecord struct {
	Component string          `json:"component"`
	Amount    decimal.Decimal `json:"amount"`
}

type chargePaidRecord struct {
	ChargeID         string          `json:"charge_id"`
	Amount           decimal.Decimal `json:"amount"`
	Penalty          bool            `json:"penalty"`
	CanOverrideRules bool            `json:"can_override_rules"`
}

// Create inserts a transaction within a database transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	taxDetails, chargesPaid, err := marshalAssociations(txn)
	if err != nil {
		return err
	}

	_, err = tx.(*Tx).PgxTx().Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		txn.ID,
		txn.AccountID,
		string(txn.TypeOf),
		timeToPgTimestamptz(txn.TransactionDate),
		txn.Amount.Currency(),
		moneyToNumeric(txn.Amount),
		txn.Reversed,
		txn.Reversal,
		txn.OriginalTransactionID,
		moneyToNumeric(txn.RunningBalance),
		moneyToNumeric(txn.CumulativeBalance),
		zeroableTimeToPgTimestamptz(txn.BalanceEndDate),
		txn.BalanceNumberOfDays,
		moneyToNumeric(txn.OverdraftAmount),
		taxDetails,
		chargesPaid,
		txn.RefNo,
		txn.LienAllowed,
		timeToPgTimestamptz(txn.CreatedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.LedgerTransaction, error) {
	return getTransaction(ctx, r.pool, id, false)
}

// GetByIDForUpdate retrieves a transaction by ID with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerTransaction, error) {
	return getTransaction(ctx, tx.(*Tx).PgxTx(), id, true)
}

func getTransaction(ctx context.Context, q dbtx, id string, forUpdate bool) (*domain.LedgerTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	txn, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// ListByAccount retrieves an account's transactions in posting order.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY transaction_date, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListByAccountForUpdate retrieves and locks the account's complete
// transaction list, in posting order, for a balance recomputation.
func (r *TransactionRepository) ListByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerTransaction, error) {
	rows, err := tx.(*Tx).PgxTx().Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY transaction_date, id FOR UPDATE`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Update rewrites a transaction's mutable fields.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.LedgerTransaction) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx,
		`UPDATE transactions SET reversed = $2, running_balance = $3, cumulative_balance = $4,
		balance_end_date = $5, balance_number_of_days = $6, overdraft_amount = $7
		WHERE id = $1`,
		txn.ID,
		txn.Reversed,
		moneyToNumeric(txn.RunningBalance),
		moneyToNumeric(txn.CumulativeBalance),
		zeroableTimeToPgTimestamptz(txn.BalanceEndDate),
		txn.BalanceNumberOfDays,
		moneyToNumeric(txn.OverdraftAmount),
	)

	return err
}

// UpdateBalances persists recomputed balance bookkeeping for a batch of
// transactions in one round trip.
func (r *TransactionRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, txns []*domain.LedgerTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, txn := range txns {
		batch.Queue(
			`UPDATE transactions SET running_balance = $2, cumulative_balance = $3,
			balance_end_date = $4, balance_number_of_days = $5, overdraft_amount = $6
			WHERE id = $1`,
			txn.ID,
			moneyToNumeric(txn.RunningBalance),
			moneyToNumeric(txn.CumulativeBalance),
			zeroableTimeToPgTimestamptz(txn.BalanceEndDate),
			txn.BalanceNumberOfDays,
			moneyToNumeric(txn.OverdraftAmount),
		)
	}

	results := tx.(*Tx).PgxTx().SendBatch(ctx, batch)
	defer results.Close()

	for range txns {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

func marshalAssociations(txn *domain.LedgerTransaction) ([]byte, []byte, error) {
	taxDetails := make([]taxDetailRecord, 0, len(txn.TaxDetails))
	for _, d := range txn.TaxDetails {
		taxDetails = append(taxDetails, taxDetailRecord{Component: d.Component, Amount: d.Amount.Amount()})
	}

	chargesPaid := make([]chargePaidRecord, 0, len(txn.ChargesPaid))
	for _, c := range txn.ChargesPaid {
		chargesPaid = append(chargesPaid, chargePaidRecord{
			ChargeID:         c.ChargeID,
			Amount:           c.Amount.Amount(),
			Penalty:          c.Penalty,
			CanOverrideRules: c.CanOverrideRules,
		})
	}

	taxJSON, err := json.Marshal(taxDetails)
	if err != nil {
		return nil, nil, err
	}

	chargesJSON, err := json.Marshal(chargesPaid)
	if err != nil {
		return nil, nil, err
	}

	return taxJSON, chargesJSON, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.LedgerTransaction, error) {
	var txns []*domain.LedgerTransaction

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.LedgerTransaction, error) {
	var (
		txn                         domain.LedgerTransaction
		typeOf, currency            string
		amount, running, cumulative pgtype.Numeric
		overdraft                   pgtype.Numeric
		transactionDate, createdAt  pgtype.Timestamptz
		balanceEndDate              pgtype.Timestamptz
		taxJSON, chargesJSON        []byte
	)

	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&typeOf,
		&transactionDate,
		&currency,
		&amount,
		&txn.Reversed,
		&txn.Reversal,
		&txn.OriginalTransactionID,
		&running,
		&cumulative,
		&balanceEndDate,
		&txn.BalanceNumberOfDays,
		&overdraft,
		&taxJSON,
		&chargesJSON,
		&txn.RefNo,
		&txn.LienAllowed,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	txn.TypeOf = domain.TransactionType(typeOf)
	txn.TransactionDate = transactionDate.Time.UTC()
	txn.Amount = numericToMoney(currency, amount)
	txn.RunningBalance = numericToMoney(currency, running)
	txn.CumulativeBalance = numericToMoney(currency, cumulative)
	txn.BalanceEndDate = pgTimestamptzToZeroableTime(balanceEndDate)
	txn.OverdraftAmount = numericToMoney(currency, overdraft)
	txn.CreatedAt = createdAt.Time.UTC()

	var taxDetails []taxDetailRecord
	if err := json.Unmarshal(taxJSON, &taxDetails); err != nil {
		return nil, err
	}

	for _, d := range taxDetails {
		txn.TaxDetails = append(txn.TaxDetails, domain.TaxDetail{
			Component: d.Component,
			Amount:    domain.NewMoney(currency, d.Amount),
		})
	}

	var chargesPaid []chargePaidRecord
	if err := json.Unmarshal(chargesJSON, &chargesPaid); err != nil {
		return nil, err
	}

	for _, c := range chargesPaid {
		txn.ChargesPaid = append(txn.ChargesPaid, domain.ChargePaidBy{
			ChargeID:         c.ChargeID,
			Amount:           domain.NewMoney(currency, c.Amount),
			Penalty:          c.Penalty,
			CanOverrideRules: c.CanOverrideRules,
		})
	}

	return &txn, nil
}
