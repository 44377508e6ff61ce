package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// dbtx is the querying surface shared by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, client_name, currency, balance, allow_overdraft, overdraft_limit,
	min_required_balance, enforce_min_required_balance, status, version, activated_on, created_at, updated_at`

const insertAccountSQL = `INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.SavingsAccount) error {
	return createAccount(ctx, r.pool, account)
}

// CreateTx creates a new account within a transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.SavingsAccount) error {
	return createAccount(ctx, tx.(*Tx).PgxTx(), account)
}

func createAccount(ctx context.Context, q dbtx, account *domain.SavingsAccount) error {
	_, err := q.Exec(ctx, insertAccountSQL,
		account.ID,
		account.ClientName,
		account.Currency,
		moneyToNumeric(account.Balance),
		account.AllowOverdraft,
		moneyToNumeric(account.OverdraftLimit),
		moneyToNumeric(account.MinRequiredBalance),
		account.EnforceMinRequiredBalance,
		string(account.Status),
		account.Version,
		timeToPgTimestamptz(account.ActivatedOn),
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.SavingsAccount, error) {
	return getAccount(ctx, r.pool, id, false)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SavingsAccount, error) {
	return getAccount(ctx, tx.(*Tx).PgxTx(), id, true)
}

func getAccount(ctx context.Context, q dbtx, id string, forUpdate bool) (*domain.SavingsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	account, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// UpdateBalance updates the stored balance of an account and bumps its
// version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, updatedAt time.Time) error {
	_, err := tx.(*Tx).PgxTx().Exec(ctx,
		`UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3 WHERE id = $1`,
		id, moneyToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)

	return err
}

// List retrieves accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.SavingsAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.SavingsAccount

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.SavingsAccount, error) {
	var (
		account                              domain.SavingsAccount
		status                               string
		balance, overdraftLimit, minRequired pgtype.Numeric
		activatedOn, createdAt, updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.ClientName,
		&account.Currency,
		&balance,
		&account.AllowOverdraft,
		&overdraftLimit,
		&minRequired,
		&account.EnforceMinRequiredBalance,
		&status,
		&account.Version,
		&activatedOn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Status = domain.AccountStatus(status)
	account.Balance = numericToMoney(account.Currency, balance)
	account.OverdraftLimit = numericToMoney(account.Currency, overdraftLimit)
	account.MinRequiredBalance = numericToMoney(account.Currency, minRequired)
	account.ActivatedOn = activatedOn.Time.UTC()
	account.CreatedAt = createdAt.Time.UTC()
	account.UpdatedAt = updatedAt.Time.UTC()

	return &account, nil
}
