package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// ChargeRepository implements usecase.ChargeRepository.
type ChargeRepository struct {
	pool *pgxpool.Pool
}

// NewChargeRepository creates a new ChargeRepository.
func NewChargeRepository(pool *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{pool: pool}
}

const chargeColumns = `id, account_id, charge_id, time_type, calculation_type, due_date, fee_on_month,
	fee_on_day, fee_interval, currency, amount, percentage, amount_paid, amount_waived, amount_written_off,
	amount_outstanding, penalty, paid, waived, active, inactivation_date, created_at, updated_at`

// Create inserts a charge within a database transaction.
func (r *ChargeRepository) Create(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx,
		`INSERT INTO charges (`+chargeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		charge.ID,
		charge.AccountID,
		charge.ChargeID,
		string(charge.TimeType),
		string(charge.CalculationType),
		timePtrToPgTimestamptz(charge.DueDate),
		int(charge.FeeOnMonth),
		charge.FeeOnDay,
		charge.FeeInterval,
		charge.Amount.Currency(),
		moneyToNumeric(charge.Amount),
		decimalToNumeric(charge.Percentage),
		moneyToNumeric(charge.AmountPaid),
		moneyToNumeric(charge.AmountWaived),
		moneyToNumeric(charge.AmountWrittenOff),
		moneyToNumeric(charge.AmountOutstanding),
		charge.Penalty,
		charge.Paid,
		charge.Waived,
		charge.Active,
		timePtrToPgTimestamptz(charge.InactivationDate),
		timeToPgTimestamptz(charge.CreatedAt),
		timeToPgTimestamptz(charge.UpdatedAt),
	)

	return err
}

// GetByID retrieves a charge by ID.
func (r *ChargeRepository) GetByID(ctx context.Context, id string) (domain.AccountCharge, error) {
	return getCharge(ctx, r.pool, id, false)
}

// GetByIDForUpdate retrieves a charge by ID with a FOR UPDATE lock.
func (r *ChargeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (domain.AccountCharge, error) {
	return getCharge(ctx, tx.(*Tx).PgxTx(), id, true)
}

func getCharge(ctx context.Context, q dbtx, id string, forUpdate bool) (domain.AccountCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	charge, err := scanCharge(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountCharge{}, domain.ErrChargeNotFound
		}

		return domain.AccountCharge{}, err
	}

	return charge, nil
}

// ListByAccount retrieves all charges attached to an account.
func (r *ChargeRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.AccountCharge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE account_id = $1 ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCharges(rows)
}

// ListActiveByAccountForUpdate retrieves and locks the account's active
// charges.
func (r *ChargeRepository) ListActiveByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]domain.AccountCharge, error) {
	rows, err := tx.(*Tx).PgxTx().Query(ctx,
		`SELECT `+chargeColumns+` FROM charges
		WHERE account_id = $1 AND active ORDER BY created_at, id FOR UPDATE`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCharges(rows)
}

// ListDue retrieves active recurring charges due on or before asOf. Skips
// rows another scheduler instance has locked.
func (r *ChargeRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]domain.AccountCharge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chargeColumns+` FROM charges
		WHERE active AND time_type IN ('annual_fee', 'monthly_fee', 'weekly_fee')
		AND due_date IS NOT NULL AND due_date <= $1 AND amount_outstanding > 0
		ORDER BY due_date, id LIMIT $2`,
		timeToPgTimestamptz(asOf), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCharges(rows)
}

// Update rewrites a charge's mutable state.
func (r *ChargeRepository) Update(ctx context.Context, tx usecase.Transaction, charge domain.AccountCharge) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx,
		`UPDATE charges SET due_date = $2, fee_on_month = $3, fee_on_day = $4, fee_interval = $5,
		amount = $6, percentage = $7, amount_paid = $8, amount_waived = $9, amount_written_off = $10,
		amount_outstanding = $11, paid = $12, waived = $13, active = $14, inactivation_date = $15,
		updated_at = $16
		WHERE id = $1`,
		charge.ID,
		timePtrToPgTimestamptz(charge.DueDate),
		int(charge.FeeOnMonth),
		charge.FeeOnDay,
		charge.FeeInterval,
		moneyToNumeric(charge.Amount),
		decimalToNumeric(charge.Percentage),
		moneyToNumeric(charge.AmountPaid),
		moneyToNumeric(charge.AmountWaived),
		moneyToNumeric(charge.AmountWrittenOff),
		moneyToNumeric(charge.AmountOutstanding),
		charge.Paid,
		charge.Waived,
		charge.Active,
		timePtrToPgTimestamptz(charge.InactivationDate),
		timeToPgTimestamptz(time.Now().UTC()),
	)

	return err
}

func collectCharges(rows pgx.Rows) ([]domain.AccountCharge, error) {
	var charges []domain.AccountCharge

	for rows.Next() {
		charge, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}

		charges = append(charges, charge)
	}

	return charges, rows.Err()
}

func scanCharge(row pgx.Row) (domain.AccountCharge, error) {
	var (
		charge                              domain.AccountCharge
		timeType, calculationType, currency string
		feeOnMonth                          int
		dueDate, inactivationDate           pgtype.Timestamptz
		createdAt, updatedAt                pgtype.Timestamptz
		amount, percentage, paid, waived    pgtype.Numeric
		writtenOff, outstanding             pgtype.Numeric
	)

	err := row.Scan(
		&charge.ID,
		&charge.AccountID,
		&charge.ChargeID,
		&timeType,
		&calculationType,
		&dueDate,
		&feeOnMonth,
		&charge.FeeOnDay,
		&charge.FeeInterval,
		&currency,
		&amount,
		&percentage,
		&paid,
		&waived,
		&writtenOff,
		&outstanding,
		&charge.Penalty,
		&charge.Paid,
		&charge.Waived,
		&charge.Active,
		&inactivationDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.AccountCharge{}, err
	}

	charge.TimeType = domain.ChargeTimeType(timeType)
	charge.CalculationType = domain.ChargeCalculationType(calculationType)
	charge.DueDate = pgTimestamptzToTimePtr(dueDate)
	charge.FeeOnMonth = time.Month(feeOnMonth)
	charge.Amount = numericToMoney(currency, amount)
	charge.Percentage = numericToDecimal(percentage)
	charge.AmountPaid = numericToMoney(currency, paid)
	charge.AmountWaived = numericToMoney(currency, waived)
	charge.AmountWrittenOff = numericToMoney(currency, writtenOff)
	charge.AmountOutstanding = numericToMoney(currency, outstanding)
	charge.InactivationDate = pgTimestamptzToTimePtr(inactivationDate)
	charge.CreatedAt = createdAt.Time.UTC()
	charge.UpdatedAt = updatedAt.Time.UTC()

	return charge, nil
}
