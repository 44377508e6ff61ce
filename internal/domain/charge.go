package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeDefinition is an immutable catalog fact a charge instance is created
// from. The catalog itself is administered outside this module.
type ChargeDefinition struct {
	ID              string
	Name            string
	Currency        string
	TimeType        ChargeTimeType
	CalculationType ChargeCalculationType
	Amount          decimal.Decimal
	FeeOnMonth      time.Month
	FeeOnDay        int
	FeeInterval     int
	Penalty         bool
}

// AccountCharge is one fee or penalty attached to one savings account. It
// owns its due-date recurrence state and its outstanding-amount state.
//
// Every state transition is a pure function from the old value to a new one;
// callers decide persistence. The derived invariant
//
//	outstanding = amount - paid - waived - writtenOff
//
// is recomputed after every mutation and never drifts.
type AccountCharge struct {
	ID               string
	AccountID        string
	ChargeID         string
	TimeType         ChargeTimeType
	CalculationType  ChargeCalculationType
	DueDate          *time.Time
	FeeOnMonth       time.Month
	FeeOnDay         int
	FeeInterval      int
	Amount           Money
	Percentage       decimal.Decimal
	AmountPaid       Money
	AmountWaived     Money
	AmountWrittenOff Money

	AmountOutstanding Money
	Penalty           bool
	Paid              bool
	Waived            bool
	Active            bool
	InactivationDate  *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ChargeAttachment carries per-account override values supplied when a
// charge definition is attached to an account. Nil fields inherit from the
// definition.
type ChargeAttachment struct {
	// Amount is the flat amount for flat charges, or the percentage value
	// for percentage-based charges.
	Amount *decimal.Decimal
	// AppliedBase is the base a percentage-based charge applies to.
	AppliedBase decimal.Decimal
	DueDate     *time.Time
	FeeInterval *int
}

// NewAccountCharge creates a charge instance from a catalog definition plus
// override values.
func NewAccountCharge(id, accountID string, def ChargeDefinition, att ChargeAttachment, now time.Time) (AccountCharge, error) {
	c := AccountCharge{
		ID:                id,
		AccountID:         accountID,
		ChargeID:          def.ID,
		TimeType:          def.TimeType,
		CalculationType:   def.CalculationType,
		FeeOnMonth:        def.FeeOnMonth,
		FeeOnDay:          def.FeeOnDay,
		FeeInterval:       def.FeeInterval,
		Amount:            ZeroMoney(def.Currency),
		AmountPaid:        ZeroMoney(def.Currency),
		AmountWaived:      ZeroMoney(def.Currency),
		AmountWrittenOff:  ZeroMoney(def.Currency),
		AmountOutstanding: ZeroMoney(def.Currency),
		Penalty:           def.Penalty,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if att.DueDate != nil {
		due := StartOfDay(*att.DueDate)
		c.DueDate = &due
	}

	if att.FeeInterval != nil {
		c.FeeInterval = *att.FeeInterval
	}

	if c.FeeInterval <= 0 {
		c.FeeInterval = 1
	}

	if err := c.validateDueDateFields(); err != nil {
		return AccountCharge{}, err
	}

	c.deriveRecurrenceFields()

	value := def.Amount
	if att.Amount != nil {
		value = *att.Amount
	}

	var err error

	c, err = c.applyChargeAmount(value, att.AppliedBase)
	if err != nil {
		return AccountCharge{}, err
	}

	return c, nil
}

func (c AccountCharge) validateDueDateFields() error {
	switch c.TimeType {
	case ChargeTimeSpecifiedDueDate, ChargeTimeAnnualFee, ChargeTimeMonthlyFee, ChargeTimeWeeklyFee:
		if c.DueDate == nil {
			return fmt.Errorf("%w: %s charge requires a due date", ErrMissingMandatoryField, c.TimeType)
		}
	}

	return nil
}

// deriveRecurrenceFields captures the month/day recurrence anchors from the
// due date. Weekly fees record the due date's ISO day-of-week instead of a
// day-of-month.
func (c *AccountCharge) deriveRecurrenceFields() {
	if c.DueDate == nil {
		return
	}

	switch c.TimeType {
	case ChargeTimeAnnualFee, ChargeTimeMonthlyFee:
		if c.FeeOnMonth == 0 {
			c.FeeOnMonth = c.DueDate.Month()
		}

		if c.FeeOnDay == 0 {
			c.FeeOnDay = c.DueDate.Day()
		}
	case ChargeTimeWeeklyFee:
		c.FeeOnDay = isoWeekday(*c.DueDate)
	}
}

// applyChargeAmount applies the charge-amount calculation policy keyed by
// calculation type. Interest- and disbursement-linked percentages are not
// computable from savings-side data and zero out.
func (c AccountCharge) applyChargeAmount(value, appliedBase decimal.Decimal) (AccountCharge, error) {
	currency := c.Amount.Currency()

	switch c.CalculationType {
	case ChargeCalculationFlat:
		c.Amount = NewMoney(currency, value)
	case ChargeCalculationPercentOfAmount:
		c.Percentage = value
		c.Amount = NewMoney(currency, appliedBase).PercentOf(value)
	default:
		c.Amount = ZeroMoney(currency)
		c.AmountOutstanding = ZeroMoney(currency)

		return c, nil
	}

	return c.recomputeOutstanding()
}

// recomputeOutstanding re-derives the outstanding amount and the paid flag.
func (c AccountCharge) recomputeOutstanding() (AccountCharge, error) {
	out, err := c.Amount.Sub(c.AmountPaid)
	if err != nil {
		return AccountCharge{}, err
	}

	out, err = out.Sub(c.AmountWaived)
	if err != nil {
		return AccountCharge{}, err
	}

	out, err = out.Sub(c.AmountWrittenOff)
	if err != nil {
		return AccountCharge{}, err
	}

	c.AmountOutstanding = out
	c.Paid = out.IsZero()

	return c, nil
}

// IsRecurring reports whether this charge re-opens a new cycle on full
// settlement.
func (c AccountCharge) IsRecurring() bool {
	return c.TimeType.IsRecurring()
}

// CanOverrideAccountRules reports whether collecting this charge may breach
// the account's minimum-balance constraint.
func (c AccountCharge) CanOverrideAccountRules() bool {
	return c.TimeType.CanOverrideAccountRules()
}

// IsFullyPaid reports whether nothing is outstanding.
func (c AccountCharge) IsFullyPaid() bool {
	return c.AmountOutstanding.IsZero()
}

// Pay records a payment against the charge. Callers clamp the amount to the
// outstanding balance before invoking; the charge does not guard against
// overpayment. Full settlement of a recurring fee advances the due date one
// period and immediately re-opens the next cycle's liability.
func (c AccountCharge) Pay(amount Money) (AccountCharge, error) {
	if !c.Active {
		return AccountCharge{}, ErrChargeNotActive
	}

	paid, err := c.AmountPaid.Add(amount)
	if err != nil {
		return AccountCharge{}, err
	}

	c.AmountPaid = paid

	c, err = c.recomputeOutstanding()
	if err != nil {
		return AccountCharge{}, err
	}

	if c.Paid && c.IsRecurring() {
		c = c.advanceDueDateOnePeriod()
		c = c.ResetRecurringFee()
	}

	return c, nil
}

// Waive moves the entire outstanding amount into the waived bucket. Recurring
// fees then advance and re-open exactly as a full payment does.
func (c AccountCharge) Waive() (AccountCharge, error) {
	if !c.Active {
		return AccountCharge{}, ErrChargeNotActive
	}

	waived, err := c.AmountWaived.Add(c.AmountOutstanding)
	if err != nil {
		return AccountCharge{}, err
	}

	c.AmountWaived = waived
	c.Waived = true

	c, err = c.recomputeOutstanding()
	if err != nil {
		return AccountCharge{}, err
	}

	if c.IsRecurring() {
		c = c.advanceDueDateOnePeriod()
		c = c.ResetRecurringFee()
	}

	return c, nil
}

// UndoPayment is the exact temporal inverse of Pay. An undone amount larger
// than the current paid bucket means the payment settled the previous cycle
// and the charge has already rolled forward: the due date rolls back one
// period and that cycle's paid bucket is rebuilt from the charge amount.
// Anything smaller comes straight back out of the bucket.
func (c AccountCharge) UndoPayment(amount Money) (AccountCharge, error) {
	if c.IsRecurring() && amount.GreaterThan(c.AmountPaid) {
		c = c.rollbackDueDateOnePeriod()

		paid, err := c.Amount.Sub(amount)
		if err != nil {
			return AccountCharge{}, err
		}

		c.AmountPaid = paid
		c.AmountWaived = c.Amount.Zero()
	} else {
		paid, err := c.AmountPaid.Sub(amount)
		if err != nil {
			return AccountCharge{}, err
		}

		c.AmountPaid = paid
	}

	c.Active = true

	c, err := c.recomputeOutstanding()
	if err != nil {
		return AccountCharge{}, err
	}

	c.Paid = false

	return c, nil
}

// UndoWaiver is the exact temporal inverse of Waive, with the same
// rolled-forward reconstruction as UndoPayment: amounts the charge settled
// before the waiver in that cycle return to the paid bucket.
func (c AccountCharge) UndoWaiver(amount Money) (AccountCharge, error) {
	if c.IsRecurring() && amount.GreaterThan(c.AmountWaived) {
		c = c.rollbackDueDateOnePeriod()

		paid, err := c.Amount.Sub(amount)
		if err != nil {
			return AccountCharge{}, err
		}

		c.AmountPaid = paid
		c.AmountWaived = c.Amount.Zero()
	} else {
		waived, err := c.AmountWaived.Sub(amount)
		if err != nil {
			return AccountCharge{}, err
		}

		c.AmountWaived = waived
	}

	c.Waived = false
	c.Active = true

	c, err := c.recomputeOutstanding()
	if err != nil {
		return AccountCharge{}, err
	}

	c.Paid = false

	return c, nil
}

// ChargeUpdate carries amount and date edits for a charge that has not been
// paid against yet.
type ChargeUpdate struct {
	Amount      *decimal.Decimal
	AppliedBase decimal.Decimal
	DueDate     *time.Time
	FeeInterval *int
}

// Update edits the charge amount or due date. Edits are only allowed before
// the first payment. Requesting an amount update on a calculation type the
// savings layer cannot compute fails with ErrUnsupportedCalculationType.
func (c AccountCharge) Update(upd ChargeUpdate) (AccountCharge, error) {
	if c.AmountPaid.IsGreaterThanZero() {
		return AccountCharge{}, fmt.Errorf("%w: charge has payments recorded", ErrInvalidChargeState)
	}

	if upd.Amount != nil && !c.CalculationType.IsSupportedForSavings() {
		return AccountCharge{}, fmt.Errorf("%w: %s", ErrUnsupportedCalculationType, c.CalculationType)
	}

	if upd.DueDate != nil {
		due := StartOfDay(*upd.DueDate)
		c.DueDate = &due
		c.FeeOnMonth = 0
		c.FeeOnDay = 0
		c.deriveRecurrenceFields()
	}

	if upd.FeeInterval != nil && *upd.FeeInterval > 0 {
		c.FeeInterval = *upd.FeeInterval
	}

	if upd.Amount != nil {
		return c.applyChargeAmount(*upd.Amount, upd.AppliedBase)
	}

	return c, nil
}

// Inactivate terminally retires the charge. The remaining outstanding amount
// is written off so the derived-outstanding invariant keeps holding.
func (c AccountCharge) Inactivate(date time.Time) (AccountCharge, error) {
	written, err := c.AmountWrittenOff.Add(c.AmountOutstanding)
	if err != nil {
		return AccountCharge{}, err
	}

	c.AmountWrittenOff = written

	c, err = c.recomputeOutstanding()
	if err != nil {
		return AccountCharge{}, err
	}

	d := StartOfDay(date)
	c.InactivationDate = &d
	c.Active = false
	c.Paid = true

	return c, nil
}

// ResetRecurringFee re-opens the next cycle's liability: the full charge
// amount becomes outstanding again and the settled cycle's paid and waived
// buckets roll out, their history lives on the ledger transactions. Clearing
// the buckets keeps outstanding derivable from them in the new cycle.
func (c AccountCharge) ResetRecurringFee() AccountCharge {
	c.AmountPaid = c.Amount.Zero()
	c.AmountWaived = c.Amount.Zero()
	c.AmountOutstanding = c.Amount
	c.Paid = false
	c.Waived = false

	return c
}

// UpdateWithdrawalFee recomputes the outstanding amount for a per-withdrawal
// fee against the withdrawal transaction amount. Withdrawal fees carry no
// persistent outstanding state between transactions.
func (c AccountCharge) UpdateWithdrawalFee(transactionAmount Money) (AccountCharge, error) {
	if c.TimeType != ChargeTimeWithdrawalFee {
		return AccountCharge{}, fmt.Errorf("%w: not a withdrawal fee", ErrInvalidChargeState)
	}

	// Each withdrawal opens a fresh settlement cycle, so the previous
	// transaction's buckets roll out the same way a recurring reset does.
	c.AmountPaid = c.Amount.Zero()
	c.AmountWaived = c.Amount.Zero()
	c.Waived = false

	switch c.CalculationType {
	case ChargeCalculationFlat:
		c.AmountOutstanding = c.Amount
	case ChargeCalculationPercentOfAmount:
		c.Amount = transactionAmount.PercentOf(c.Percentage)
		c.AmountOutstanding = c.Amount
	default:
		c.AmountOutstanding = c.AmountOutstanding.Zero()
	}

	c.Paid = c.AmountOutstanding.IsZero()

	return c, nil
}

// WithoutWithdrawalFee forces a "no fee" outcome for one withdrawal.
func (c AccountCharge) WithoutWithdrawalFee() AccountCharge {
	c.AmountOutstanding = c.AmountOutstanding.Zero()
	c.Paid = true

	return c
}

// NextDueDateFrom computes the first due date on or after start. Annual and
// monthly fees seed at start's year with the recurrence month/day and step
// forward period by period; weekly fees step from the current due date.
// Non-recurring charges answer their fixed due date directly.
func (c AccountCharge) NextDueDateFrom(start time.Time) (time.Time, error) {
	from := StartOfDay(start)

	switch c.TimeType {
	case ChargeTimeAnnualFee, ChargeTimeMonthlyFee:
		candidate := dateWithClampedDay(from.Year(), c.FeeOnMonth, c.FeeOnDay)
		for candidate.Before(from) {
			candidate = c.advanceOnePeriod(candidate)
		}

		return candidate, nil
	case ChargeTimeWeeklyFee:
		if c.DueDate == nil {
			return time.Time{}, fmt.Errorf("%w: weekly charge has no due date", ErrMissingMandatoryField)
		}

		candidate := *c.DueDate
		for candidate.Before(from) {
			candidate = c.advanceOnePeriod(candidate)
		}

		return candidate, nil
	default:
		if c.DueDate == nil {
			return time.Time{}, fmt.Errorf("%w: charge has no due date", ErrMissingMandatoryField)
		}

		return *c.DueDate, nil
	}
}

// UpdateToNextDueDateFrom moves the due date to the first occurrence on or
// after start.
func (c AccountCharge) UpdateToNextDueDateFrom(start time.Time) (AccountCharge, error) {
	due, err := c.NextDueDateFrom(start)
	if err != nil {
		return AccountCharge{}, err
	}

	c.DueDate = &due

	return c, nil
}

// UpdateToPreviousDueDate rolls the due date back one period, the exact
// inverse of a single forward advance. Used when a payment or waiver on a
// recurring fee is undone.
func (c AccountCharge) UpdateToPreviousDueDate() AccountCharge {
	return c.rollbackDueDateOnePeriod()
}

func (c AccountCharge) advanceDueDateOnePeriod() AccountCharge {
	if c.DueDate == nil {
		return c
	}

	due := c.advanceOnePeriod(*c.DueDate)
	c.DueDate = &due

	return c
}

func (c AccountCharge) rollbackDueDateOnePeriod() AccountCharge {
	if c.DueDate == nil {
		return c
	}

	due := c.previousOnePeriod(*c.DueDate)
	c.DueDate = &due

	return c
}

// advanceOnePeriod steps a due date one recurrence period forward. The
// day-of-month is re-clamped to the target month's length; weekly steps are
// forced back onto the recorded ISO weekday if day arithmetic drifted.
func (c AccountCharge) advanceOnePeriod(from time.Time) time.Time {
	switch c.TimeType {
	case ChargeTimeAnnualFee:
		return dateWithClampedDay(from.Year()+1, c.FeeOnMonth, c.FeeOnDay)
	case ChargeTimeMonthlyFee:
		year, month := addMonths(from.Year(), from.Month(), c.FeeInterval)

		return dateWithClampedDay(year, month, c.FeeOnDay)
	case ChargeTimeWeeklyFee:
		return snapToISOWeekday(from.AddDate(0, 0, 7*c.FeeInterval), c.FeeOnDay)
	default:
		return from
	}
}

func (c AccountCharge) previousOnePeriod(from time.Time) time.Time {
	switch c.TimeType {
	case ChargeTimeAnnualFee:
		return dateWithClampedDay(from.Year()-1, c.FeeOnMonth, c.FeeOnDay)
	case ChargeTimeMonthlyFee:
		year, month := addMonths(from.Year(), from.Month(), -c.FeeInterval)

		return dateWithClampedDay(year, month, c.FeeOnDay)
	case ChargeTimeWeeklyFee:
		return snapToISOWeekday(from.AddDate(0, 0, -7*c.FeeInterval), c.FeeOnDay)
	default:
		return from
	}
}

// IsDueOnOrBefore reports whether the charge's due date has arrived.
func (c AccountCharge) IsDueOnOrBefore(date time.Time) bool {
	return c.DueDate != nil && !c.DueDate.After(StartOfDay(date))
}

// Calendar helpers.

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateWithClampedDay(year int, month time.Month, day int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	if day < 1 {
		day = 1
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func addMonths(year int, month time.Month, months int) (int, time.Month) {
	total := year*12 + int(month) - 1 + months

	return total / 12, time.Month(total%12 + 1)
}

// isoWeekday maps time.Weekday onto ISO-8601 numbering, Monday=1 Sunday=7.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// snapToISOWeekday shifts t onto the given ISO weekday. A no-op for exact
// 7-day multiples.
func snapToISOWeekday(t time.Time, iso int) time.Time {
	if iso < 1 || iso > 7 {
		return t
	}

	return t.AddDate(0, 0, iso-isoWeekday(t))
}
