package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/savingsledger/internal/domain"
)

// ChargeDefinitionRepository implements usecase.ChargeDefinitionRepository.
type ChargeDefinitionRepository struct {
	pool *pgxpool.Pool
}

// NewChargeDefinitionRepository creates a new ChargeDefinitionRepository.
func NewChargeDefinitionRepository(pool *pgxpool.Pool) *ChargeDefinitionRepository {
	return &ChargeDefinitionRepository{pool: pool}
}

const chargeDefinitionColumns = `id, name, currency, time_type, calculation_type, amount,
	fee_on_month, fee_on_day, fee_interval, penalty`

// Create inserts a charge definition into the catalog.
func (r *ChargeDefinitionRepository) Create(ctx context.Context, def domain.ChargeDefinition) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO charge_definitions (`+chargeDefinitionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		def.ID,
		def.Name,
		def.Currency,
		string(def.TimeType),
		string(def.CalculationType),
		decimalToNumeric(def.Amount),
		int(def.FeeOnMonth),
		def.FeeOnDay,
		def.FeeInterval,
		def.Penalty,
	)

	return err
}

// GetByID retrieves a charge definition by ID.
func (r *ChargeDefinitionRepository) GetByID(ctx context.Context, id string) (domain.ChargeDefinition, error) {
	def, err := scanChargeDefinition(r.pool.QueryRow(ctx,
		`SELECT `+chargeDefinitionColumns+` FROM charge_definitions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChargeDefinition{}, domain.ErrChargeDefinitionNotFound
		}

		return domain.ChargeDefinition{}, err
	}

	return def, nil
}

// List retrieves the full charge catalog.
func (r *ChargeDefinitionRepository) List(ctx context.Context) ([]domain.ChargeDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+chargeDefinitionColumns+` FROM charge_definitions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []domain.ChargeDefinition

	for rows.Next() {
		def, err := scanChargeDefinition(rows)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, rows.Err()
}

func scanChargeDefinition(row pgx.Row) (domain.ChargeDefinition, error) {
	var (
		def                       domain.ChargeDefinition
		timeType, calculationType string
		feeOnMonth                int
		amount                    pgtype.Numeric
	)

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Currency,
		&timeType,
		&calculationType,
		&amount,
		&feeOnMonth,
		&def.FeeOnDay,
		&def.FeeInterval,
		&def.Penalty,
	)
	if err != nil {
		return domain.ChargeDefinition{}, err
	}

	def.TimeType = domain.ChargeTimeType(timeType)
	def.CalculationType = domain.ChargeCalculationType(calculationType)
	def.Amount = numericToDecimal(amount)
	def.FeeOnMonth = time.Month(feeOnMonth)

	return def, nil
}
