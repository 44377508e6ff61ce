package domain

import (
	"time"
)

// TaxDetail is one component of tax withheld by a withhold-tax transaction.
type TaxDetail struct {
	Component string
	Amount    Money
}

// ChargePaidBy links a transaction to the account charge it paid or waived.
// The charge's penalty/override flags are captured at association time so no
// live object graph is needed; by convention a transaction references at
// most one charge.
type ChargePaidBy struct {
	ChargeID         string
	Amount           Money
	Penalty          bool
	CanOverrideRules bool
}

// LedgerTransaction is one dated monetary movement against a savings
// account. It owns its running-balance and day-span bookkeeping.
type LedgerTransaction struct {
	ID                    string
	AccountID             string
	TypeOf                TransactionType
	TransactionDate       time.Time
	Amount                Money
	Reversed              bool
	Reversal              bool
	OriginalTransactionID string

	RunningBalance      Money
	CumulativeBalance   Money
	BalanceEndDate      time.Time
	BalanceNumberOfDays int
	OverdraftAmount     Money

	TaxDetails  []TaxDetail
	ChargesPaid []ChargePaidBy
	RefNo       string
	LienAllowed bool
	CreatedAt   time.Time
}

// EndOfDayBalance is the balance considered in effect across a span of days
// following a transaction, used by average-balance interest methods and
// reporting.
type EndOfDayBalance struct {
	Date            time.Time
	OpeningBalance  Money
	EndOfDayBalance Money
	NumberOfDays    int
}

func newTransaction(id, accountID string, typeOf TransactionType, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return &LedgerTransaction{
		ID:                id,
		AccountID:         accountID,
		TypeOf:            typeOf,
		TransactionDate:   StartOfDay(date),
		Amount:            amount,
		RunningBalance:    amount.Zero(),
		CumulativeBalance: amount.Zero(),
		OverdraftAmount:   amount.Zero(),
		CreatedAt:         now,
	}
}

// NewDeposit creates a deposit transaction.
func NewDeposit(id, accountID string, date time.Time, amount Money, refNo string, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionDeposit, date, amount, now)
	t.RefNo = refNo

	return t
}

// NewWithdrawal creates a withdrawal transaction.
func NewWithdrawal(id, accountID string, date time.Time, amount Money, refNo string, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionWithdrawal, date, amount, now)
	t.RefNo = refNo

	return t
}

// NewInterestPosting creates an interest-posting transaction.
func NewInterestPosting(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionInterestPosting, date, amount, now)
}

// NewOverdraftInterest creates an overdraft-interest transaction.
func NewOverdraftInterest(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionOverdraftInterest, date, amount, now)
}

// NewWithdrawalFee creates a withdrawal-fee transaction paying the given
// charge.
func NewWithdrawalFee(id, accountID string, date time.Time, amount Money, charge ChargePaidBy, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionWithdrawalFee, date, amount, now)
	t.ChargesPaid = []ChargePaidBy{charge}

	return t
}

// NewAnnualFee creates an annual-fee transaction paying the given charge.
func NewAnnualFee(id, accountID string, date time.Time, amount Money, charge ChargePaidBy, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionAnnualFee, date, amount, now)
	t.ChargesPaid = []ChargePaidBy{charge}

	return t
}

// NewPayCharge creates a fee-payment transaction for the given charge.
func NewPayCharge(id, accountID string, date time.Time, amount Money, charge ChargePaidBy, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionPayCharge, date, amount, now)
	t.ChargesPaid = []ChargePaidBy{charge}

	return t
}

// NewWaiveCharge creates a waiver transaction for the given charge. Waivers
// record the waived amount but move no money.
func NewWaiveCharge(id, accountID string, date time.Time, amount Money, charge ChargePaidBy, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionWaiveCharge, date, amount, now)
	t.ChargesPaid = []ChargePaidBy{charge}

	return t
}

// NewHoldAmount creates an amount-hold transaction earmarking funds as
// unavailable without transferring them.
func NewHoldAmount(id, accountID string, date time.Time, amount Money, lienAllowed bool, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionAmountHold, date, amount, now)
	t.LienAllowed = lienAllowed

	return t
}

// NewReleaseAmount creates the offsetting release for a hold transaction.
func NewReleaseAmount(id string, hold *LedgerTransaction, date time.Time, now time.Time) *LedgerTransaction {
	t := newTransaction(id, hold.AccountID, TransactionAmountRelease, date, hold.Amount, now)
	t.OriginalTransactionID = hold.ID
	t.LienAllowed = hold.LienAllowed

	return t
}

// NewWithholdTax creates a withhold-tax transaction with its per-component
// breakdown.
func NewWithholdTax(id, accountID string, date time.Time, amount Money, details []TaxDetail, now time.Time) *LedgerTransaction {
	t := newTransaction(id, accountID, TransactionWithholdTax, date, amount, now)
	t.TaxDetails = details

	return t
}

// NewEscheat creates an escheat transaction surrendering a dormant balance.
func NewEscheat(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionEscheat, date, amount, now)
}

// NewTransferInitiation creates the outgoing leg of an account transfer.
func NewTransferInitiation(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionTransferInitiation, date, amount, now)
}

// NewTransferApproval creates the status-only approval record of a transfer.
func NewTransferApproval(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionTransferApproval, date, amount, now)
}

// NewTransferWithdrawal creates the refunding record of a withdrawn (not
// approved) transfer.
func NewTransferWithdrawal(id, accountID string, date time.Time, amount Money, now time.Time) *LedgerTransaction {
	return newTransaction(id, accountID, TransactionTransferWithdrawal, date, amount, now)
}

// NewReversal builds a structurally separate reversal entry: a copy of the
// original with a back-reference, shown on the ledger as an explicit
// offsetting entry rather than hiding the original. Used where symmetrical
// offsetting (e.g. hold release semantics) is required instead of in-place
// voiding.
func NewReversal(id string, original *LedgerTransaction, now time.Time) *LedgerTransaction {
	t := newTransaction(id, original.AccountID, original.TypeOf, original.TransactionDate, original.Amount, now)
	t.Reversed = false
	t.Reversal = true
	t.OriginalTransactionID = original.ID
	t.RefNo = original.RefNo
	t.LienAllowed = original.LienAllowed

	return t
}

// IsCredit reports whether this transaction increases the balance. Reversed
// transactions and reversal entries never classify as credit.
func (t *LedgerTransaction) IsCredit() bool {
	return !t.Reversed && !t.Reversal && t.TypeOf.IsCreditType()
}

// IsDebit reports whether this transaction decreases the balance. Reversed
// transactions and reversal entries never classify as debit.
func (t *LedgerTransaction) IsDebit() bool {
	return !t.Reversed && !t.Reversal && t.TypeOf.IsDebitType()
}

// UpdateRunningBalance recomputes the running balance from the balance known
// before this transaction. A debit against a non-positive opening balance on
// an account without overdraft leaves the balance unchanged; the rejection
// policy itself lives with the account, the arithmetic reproduces the clamp.
func (t *LedgerTransaction) UpdateRunningBalance(opening Money, allowOverdraft bool) (Money, error) {
	balance := opening

	switch {
	case t.IsCredit():
		var err error

		balance, err = opening.Add(t.Amount)
		if err != nil {
			return Money{}, err
		}
	case t.IsDebit():
		if opening.IsGreaterThanZero() || allowOverdraft {
			var err error

			balance, err = opening.Sub(t.Amount)
			if err != nil {
				return Money{}, err
			}
		}
	}

	t.RunningBalance = balance
	if balance.IsNegative() {
		t.OverdraftAmount = balance.Neg()
	} else {
		t.OverdraftAmount = balance.Zero()
	}

	return balance, nil
}

// ToEndOfDayBalance projects the balance in effect from this transaction's
// date until the following transaction's date. The day count excludes the
// day the balance was still the old one: when the balance actually changed
// and the span covers more than one day, one day is subtracted.
func (t *LedgerTransaction) ToEndOfDayBalance(opening Money, nextTransactionDate time.Time, allowOverdraft bool) (EndOfDayBalance, error) {
	numberOfDays := DaysInclusiveBetween(t.TransactionDate, nextTransactionDate)

	endOfDay, err := t.applyToBalance(opening, allowOverdraft)
	if err != nil {
		return EndOfDayBalance{}, err
	}

	if !endOfDay.Equal(opening) && numberOfDays > 1 {
		numberOfDays--
	}

	return EndOfDayBalance{
		Date:            t.TransactionDate,
		OpeningBalance:  opening,
		EndOfDayBalance: endOfDay,
		NumberOfDays:    numberOfDays,
	}, nil
}

// ToEndOfDayBalanceBoundedBy projects the balance within an explicit
// reporting window. When this transaction's balance window starts before the
// bound, the balance entering the window is carried through unchanged and
// only the day count is re-derived from the clipped window; otherwise the
// movement applies normally. A window running past the bound's end is
// clipped to it.
func (t *LedgerTransaction) ToEndOfDayBalanceBoundedBy(opening Money, boundedBy DateInterval, allowOverdraft bool) (EndOfDayBalance, error) {
	balanceStart := t.TransactionDate
	balanceEnd := t.BalanceEndDate

	if balanceEnd.IsZero() || balanceEnd.After(boundedBy.End()) {
		balanceEnd = boundedBy.End()
	}

	if balanceStart.Before(boundedBy.Start()) {
		balanceStart = boundedBy.Start()

		return EndOfDayBalance{
			Date:            balanceStart,
			OpeningBalance:  opening,
			EndOfDayBalance: opening,
			NumberOfDays:    DaysInclusiveBetween(balanceStart, balanceEnd),
		}, nil
	}

	endOfDay, err := t.applyToBalance(opening, allowOverdraft)
	if err != nil {
		return EndOfDayBalance{}, err
	}

	return EndOfDayBalance{
		Date:            balanceStart,
		OpeningBalance:  opening,
		EndOfDayBalance: endOfDay,
		NumberOfDays:    DaysInclusiveBetween(balanceStart, balanceEnd),
	}, nil
}

func (t *LedgerTransaction) applyToBalance(opening Money, allowOverdraft bool) (Money, error) {
	switch {
	case t.IsCredit():
		return opening.Add(t.Amount)
	case t.IsDebit():
		if opening.IsGreaterThanZero() || allowOverdraft {
			return opening.Sub(t.Amount)
		}
	}

	return opening, nil
}

// UpdateCumulativeBalanceAndDates fixes this transaction's balance validity
// window. The end date is clamped to be no earlier than the transaction
// date, and the cumulative balance is running balance times the day span.
func (t *LedgerTransaction) UpdateCumulativeBalanceAndDates(endOfBalanceDate time.Time) {
	end := StartOfDay(endOfBalanceDate)
	if end.Before(t.TransactionDate) {
		end = t.TransactionDate
	}

	t.BalanceEndDate = end
	t.BalanceNumberOfDays = DaysInclusiveBetween(t.TransactionDate, end)
	t.CumulativeBalance = t.RunningBalance.MulInt(t.BalanceNumberOfDays)
}

// ZeroBalanceFields clears the balance bookkeeping, forcing the account to
// recompute all subsequent running balances.
func (t *LedgerTransaction) ZeroBalanceFields() {
	t.RunningBalance = t.RunningBalance.Zero()
	t.CumulativeBalance = t.CumulativeBalance.Zero()
	t.OverdraftAmount = t.OverdraftAmount.Zero()
	t.BalanceEndDate = time.Time{}
	t.BalanceNumberOfDays = 0
}

// Reverse voids the transaction in place. Balance fields are zeroed; the
// account must then recompute running balances end to end.
func (t *LedgerTransaction) Reverse() error {
	if t.Reversed {
		return ErrTransactionAlreadyVoided
	}

	t.Reversed = true
	t.ZeroBalanceFields()

	return nil
}

// IsAcceptableForDailyBalance reports whether this transaction counts toward
// the given interest period.
func (t *LedgerTransaction) IsAcceptableForDailyBalance(interestPeriod DateInterval) bool {
	return !t.Reversed && interestPeriod.Contains(t.TransactionDate) && t.BalanceNumberOfDays > 0
}

// FallsWithin reports whether the transaction date is inside the interval.
func (t *LedgerTransaction) FallsWithin(interval DateInterval) bool {
	return interval.Contains(t.TransactionDate)
}

// SpansAnyPortionOf reports whether the transaction's balance window overlaps
// the interval on at least one day.
func (t *LedgerTransaction) SpansAnyPortionOf(interval DateInterval) bool {
	end := t.BalanceEndDate
	if end.IsZero() {
		end = t.TransactionDate
	}

	window, err := NewDateInterval(t.TransactionDate, end)
	if err != nil {
		return false
	}

	return interval.ContainsPortionOf(window)
}

// ChargePaid returns the single charge association, if any.
func (t *LedgerTransaction) ChargePaid() (ChargePaidBy, bool) {
	if len(t.ChargesPaid) == 0 {
		return ChargePaidBy{}, false
	}

	return t.ChargesPaid[0], true
}

// IsFeeCharge reports whether this transaction pays a non-penalty charge.
func (t *LedgerTransaction) IsFeeCharge() bool {
	charge, ok := t.ChargePaid()

	return ok && !charge.Penalty
}

// IsPenaltyCharge reports whether this transaction pays a penalty charge.
func (t *LedgerTransaction) IsPenaltyCharge() bool {
	charge, ok := t.ChargePaid()

	return ok && charge.Penalty
}

// CanOverrideAccountRules reports whether the associated charge may be
// collected past the account's minimum-balance constraint.
func (t *LedgerTransaction) CanOverrideAccountRules() bool {
	charge, ok := t.ChargePaid()

	return ok && charge.CanOverrideRules
}
