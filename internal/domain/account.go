package domain

import (
	"fmt"
	"time"
)

// AccountStatus is the lifecycle state of a savings account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusClosed AccountStatus = "closed"
)

// SavingsAccount is the aggregate owning the ordered transaction list and
// the charge set, both referenced by id. It enforces overdraft and
// minimum-balance policy; the balance arithmetic itself lives with the
// transactions.
type SavingsAccount struct {
	ID                        string
	ClientName                string
	Currency                  string
	Balance                   Money
	AllowOverdraft            bool
	OverdraftLimit            Money
	MinRequiredBalance        Money
	EnforceMinRequiredBalance bool
	Status                    AccountStatus
	Version                   int64
	ActivatedOn               time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// IsActive reports whether the account accepts transactions.
func (a *SavingsAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateDebit checks overdraft and minimum-balance policy for a debit of
// the given amount. Charges whose time type may override account rules pass
// canOverrideRules=true and are checked against the overdraft limit only.
func (a *SavingsAccount) ValidateDebit(amount Money, canOverrideRules bool) error {
	newBalance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}

	if !a.AllowOverdraft {
		floor := a.Balance.Zero()
		if a.EnforceMinRequiredBalance && !canOverrideRules {
			floor = a.MinRequiredBalance
		}

		if newBalance.LessThan(floor) {
			return fmt.Errorf("%w: balance %s, debit %s", ErrInsufficientBalance, a.Balance, amount)
		}

		return nil
	}

	if a.OverdraftLimit.IsGreaterThanZero() && newBalance.IsNegative() {
		overdrawn := newBalance.Neg()
		if overdrawn.GreaterThan(a.OverdraftLimit) {
			return fmt.Errorf("%w: overdraft limit %s exceeded", ErrInsufficientBalance, a.OverdraftLimit)
		}
	}

	return nil
}
