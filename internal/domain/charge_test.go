package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func monthlyFeeDefinition() ChargeDefinition {
	return ChargeDefinition{
		ID:              "chg-monthly",
		Name:            "monthly maintenance",
		Currency:        "USD",
		TimeType:        ChargeTimeMonthlyFee,
		CalculationType: ChargeCalculationFlat,
		Amount:          decimal.NewFromInt(50),
		FeeInterval:     1,
	}
}

func newTestCharge(t *testing.T, def ChargeDefinition, due time.Time) AccountCharge {
	t.Helper()

	charge, err := NewAccountCharge("sc-1", "acc-1", def, ChargeAttachment{DueDate: &due}, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return charge
}

func assertOutstandingInvariant(t *testing.T, c AccountCharge) {
	t.Helper()

	expected := c.Amount.Amount().
		Sub(c.AmountPaid.Amount()).
		Sub(c.AmountWaived.Amount()).
		Sub(c.AmountWrittenOff.Amount())

	if !c.AmountOutstanding.Amount().Equal(expected) {
		t.Errorf("outstanding invariant broken: outstanding %s, expected %s", c.AmountOutstanding.Amount(), expected)
	}
}

func TestNewAccountCharge_MissingDueDate(t *testing.T) {
	tests := []ChargeTimeType{
		ChargeTimeSpecifiedDueDate,
		ChargeTimeAnnualFee,
		ChargeTimeMonthlyFee,
		ChargeTimeWeeklyFee,
	}

	for _, timeType := range tests {
		t.Run(string(timeType), func(t *testing.T) {
			def := monthlyFeeDefinition()
			def.TimeType = timeType

			_, err := NewAccountCharge("sc-1", "acc-1", def, ChargeAttachment{}, date(2024, time.January, 1))
			if !errors.Is(err, ErrMissingMandatoryField) {
				t.Errorf("expected ErrMissingMandatoryField, got %v", err)
			}
		})
	}
}

func TestNewAccountCharge_FlatAmount(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.February, 15))

	if !charge.Amount.Equal(NewMoney("USD", decimal.NewFromInt(50))) {
		t.Errorf("expected amount USD 50, got %s", charge.Amount)
	}

	if !charge.AmountOutstanding.Equal(charge.Amount) {
		t.Errorf("expected outstanding to equal amount, got %s", charge.AmountOutstanding)
	}

	if charge.FeeOnMonth != time.February || charge.FeeOnDay != 15 {
		t.Errorf("expected recurrence anchors Feb/15, got %s/%d", charge.FeeOnMonth, charge.FeeOnDay)
	}

	assertOutstandingInvariant(t, charge)
}

func TestNewAccountCharge_PercentOfAmount(t *testing.T) {
	def := monthlyFeeDefinition()
	def.CalculationType = ChargeCalculationPercentOfAmount

	pct := decimal.NewFromFloat(2.5)
	due := date(2024, time.February, 15)

	charge, err := NewAccountCharge("sc-1", "acc-1", def, ChargeAttachment{
		Amount:      &pct,
		AppliedBase: decimal.NewFromInt(2000),
		DueDate:     &due,
	}, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !charge.Amount.Amount().Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected amount 50, got %s", charge.Amount.Amount())
	}

	if !charge.Percentage.Equal(pct) {
		t.Errorf("expected percentage 2.5, got %s", charge.Percentage)
	}

	assertOutstandingInvariant(t, charge)
}

func TestNewAccountCharge_UnsupportedCalculationZeroesOut(t *testing.T) {
	for _, calc := range []ChargeCalculationType{
		ChargeCalculationPercentOfAmountAndInterest,
		ChargeCalculationPercentOfInterest,
		ChargeCalculationPercentOfDisbursement,
	} {
		t.Run(string(calc), func(t *testing.T) {
			def := monthlyFeeDefinition()
			def.CalculationType = calc

			charge := newTestCharge(t, def, date(2024, time.February, 15))

			if !charge.Amount.IsZero() || !charge.AmountOutstanding.IsZero() {
				t.Errorf("expected zeroed monetary fields, got amount %s outstanding %s",
					charge.Amount, charge.AmountOutstanding)
			}
		})
	}
}

func TestAccountCharge_FullPaymentAdvancesAndReopens(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	paid, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !paid.AmountOutstanding.Equal(NewMoney("USD", decimal.NewFromInt(50))) {
		t.Errorf("expected next cycle outstanding 50, got %s", paid.AmountOutstanding)
	}

	if paid.Paid {
		t.Error("expected paid flag reset for next cycle")
	}

	if paid.Waived {
		t.Error("expected waived flag reset for next cycle")
	}

	expectedDue := date(2024, time.April, 15)
	if paid.DueDate == nil || !paid.DueDate.Equal(expectedDue) {
		t.Errorf("expected due date %s, got %v", expectedDue, paid.DueDate)
	}

	// The settled cycle's bucket rolls out; history lives on the ledger.
	if !paid.AmountPaid.IsZero() {
		t.Errorf("expected paid bucket cleared for next cycle, got %s", paid.AmountPaid)
	}

	assertOutstandingInvariant(t, paid)
}

func TestAccountCharge_PartialPayment(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	paid, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(20)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !paid.AmountOutstanding.Equal(NewMoney("USD", decimal.NewFromInt(30))) {
		t.Errorf("expected outstanding 30, got %s", paid.AmountOutstanding)
	}

	if paid.Paid {
		t.Error("expected paid flag false after partial payment")
	}

	if !paid.DueDate.Equal(date(2024, time.March, 15)) {
		t.Errorf("expected due date unchanged, got %v", paid.DueDate)
	}

	assertOutstandingInvariant(t, paid)
}

func TestAccountCharge_UndoPaymentRoundTrip(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	amount := NewMoney("USD", decimal.NewFromInt(50))

	paid, err := charge.Pay(amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := paid.UndoPayment(amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !restored.AmountOutstanding.Equal(charge.AmountOutstanding) {
		t.Errorf("expected outstanding %s, got %s", charge.AmountOutstanding, restored.AmountOutstanding)
	}

	if restored.Paid != charge.Paid {
		t.Errorf("expected paid flag %v, got %v", charge.Paid, restored.Paid)
	}

	if !restored.DueDate.Equal(*charge.DueDate) {
		t.Errorf("expected due date %s, got %s", charge.DueDate, restored.DueDate)
	}

	if !restored.AmountPaid.IsZero() {
		t.Errorf("expected amount paid restored to zero, got %s", restored.AmountPaid)
	}

	assertOutstandingInvariant(t, restored)
}

func TestAccountCharge_WaiveAdvancesRecurring(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	waived, err := charge.Waive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !waived.AmountWaived.IsZero() {
		t.Errorf("expected waived bucket cleared for next cycle, got %s", waived.AmountWaived)
	}

	if !waived.DueDate.Equal(date(2024, time.April, 15)) {
		t.Errorf("expected due date advanced one month, got %s", waived.DueDate)
	}

	// Next cycle is open again.
	if !waived.AmountOutstanding.Equal(NewMoney("USD", decimal.NewFromInt(50))) {
		t.Errorf("expected outstanding re-opened at 50, got %s", waived.AmountOutstanding)
	}

	if waived.Waived {
		t.Error("expected waived flag cleared for the re-opened cycle")
	}
}

func TestAccountCharge_UndoWaiverRoundTrip(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	waived, err := charge.Waive()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored, err := waived.UndoWaiver(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !restored.AmountOutstanding.Equal(charge.AmountOutstanding) {
		t.Errorf("expected outstanding %s, got %s", charge.AmountOutstanding, restored.AmountOutstanding)
	}

	if !restored.DueDate.Equal(*charge.DueDate) {
		t.Errorf("expected due date %s, got %s", charge.DueDate, restored.DueDate)
	}

	assertOutstandingInvariant(t, restored)
}

func TestAccountCharge_MonthlyDayClamping(t *testing.T) {
	def := monthlyFeeDefinition()
	charge := newTestCharge(t, def, date(2024, time.March, 31))

	// March 31 advanced one month lands on April 30, not day 31.
	advanced, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !advanced.DueDate.Equal(date(2024, time.April, 30)) {
		t.Errorf("expected due date clamped to 2024-04-30, got %s", advanced.DueDate)
	}

	// And the next advance recovers day 31 in May.
	again, err := advanced.Pay(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !again.DueDate.Equal(date(2024, time.May, 31)) {
		t.Errorf("expected due date 2024-05-31, got %s", again.DueDate)
	}
}

func TestAccountCharge_AnnualLeapDayAdvance(t *testing.T) {
	def := monthlyFeeDefinition()
	def.TimeType = ChargeTimeAnnualFee

	charge := newTestCharge(t, def, date(2024, time.February, 29))

	advanced, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !advanced.DueDate.Equal(date(2025, time.February, 28)) {
		t.Errorf("expected 2025-02-28, got %s", advanced.DueDate)
	}
}

func TestAccountCharge_WeeklyRecurrence(t *testing.T) {
	def := monthlyFeeDefinition()
	def.TimeType = ChargeTimeWeeklyFee
	def.FeeInterval = 2

	// 2024-03-13 is a Wednesday (ISO 3).
	charge := newTestCharge(t, def, date(2024, time.March, 13))

	if charge.FeeOnDay != 3 {
		t.Fatalf("expected ISO weekday 3 captured from due date, got %d", charge.FeeOnDay)
	}

	advanced, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := date(2024, time.March, 27)
	if !advanced.DueDate.Equal(expected) {
		t.Errorf("expected due date %s, got %s", expected, advanced.DueDate)
	}

	if got := isoWeekday(*advanced.DueDate); got != 3 {
		t.Errorf("expected advanced due date to remain a Wednesday, got ISO %d", got)
	}
}

func TestAccountCharge_NextDueDateFrom(t *testing.T) {
	tests := []struct {
		name     string
		timeType ChargeTimeType
		interval int
		due      time.Time
		from     time.Time
		expected time.Time
	}{
		{
			name:     "monthly already past seed steps forward",
			timeType: ChargeTimeMonthlyFee,
			interval: 1,
			due:      date(2024, time.January, 31),
			from:     date(2024, time.March, 15),
			expected: date(2024, time.March, 31),
		},
		{
			name:     "annual seeds at start year",
			timeType: ChargeTimeAnnualFee,
			interval: 1,
			due:      date(2023, time.June, 10),
			from:     date(2024, time.February, 1),
			expected: date(2024, time.June, 10),
		},
		{
			name:     "weekly steps from current due date",
			timeType: ChargeTimeWeeklyFee,
			interval: 1,
			due:      date(2024, time.March, 13),
			from:     date(2024, time.March, 25),
			expected: date(2024, time.March, 27),
		},
		{
			name:     "specified due date answers directly",
			timeType: ChargeTimeSpecifiedDueDate,
			interval: 1,
			due:      date(2024, time.March, 13),
			from:     date(2024, time.June, 1),
			expected: date(2024, time.March, 13),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := monthlyFeeDefinition()
			def.TimeType = tt.timeType
			def.FeeInterval = tt.interval

			charge := newTestCharge(t, def, tt.due)

			got, err := charge.NextDueDateFrom(tt.from)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.Equal(tt.expected) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAccountCharge_UpdateUnsupportedCalculationType(t *testing.T) {
	def := monthlyFeeDefinition()
	def.CalculationType = ChargeCalculationPercentOfInterest

	charge := newTestCharge(t, def, date(2024, time.March, 15))

	amount := decimal.NewFromInt(75)

	_, err := charge.Update(ChargeUpdate{Amount: &amount})
	if !errors.Is(err, ErrUnsupportedCalculationType) {
		t.Errorf("expected ErrUnsupportedCalculationType, got %v", err)
	}
}

func TestAccountCharge_UpdateAfterPaymentRejected(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	paid, err := charge.Pay(NewMoney("USD", decimal.NewFromInt(20)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amount := decimal.NewFromInt(75)

	_, err = paid.Update(ChargeUpdate{Amount: &amount})
	if !errors.Is(err, ErrInvalidChargeState) {
		t.Errorf("expected ErrInvalidChargeState, got %v", err)
	}
}

func TestAccountCharge_UpdateAmount(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	amount := decimal.NewFromInt(75)

	updated, err := charge.Update(ChargeUpdate{Amount: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !updated.Amount.Amount().Equal(amount) {
		t.Errorf("expected amount 75, got %s", updated.Amount.Amount())
	}

	assertOutstandingInvariant(t, updated)
}

func TestAccountCharge_Inactivate(t *testing.T) {
	charge := newTestCharge(t, monthlyFeeDefinition(), date(2024, time.March, 15))

	inactive, err := charge.Inactivate(date(2024, time.April, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inactive.Active {
		t.Error("expected active flag cleared")
	}

	if !inactive.Paid {
		t.Error("expected paid flag set")
	}

	if !inactive.AmountOutstanding.IsZero() {
		t.Errorf("expected zero outstanding, got %s", inactive.AmountOutstanding)
	}

	if inactive.InactivationDate == nil || !inactive.InactivationDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("expected inactivation date recorded, got %v", inactive.InactivationDate)
	}

	assertOutstandingInvariant(t, inactive)

	if _, err := inactive.Pay(NewMoney("USD", decimal.NewFromInt(10))); !errors.Is(err, ErrChargeNotActive) {
		t.Errorf("expected ErrChargeNotActive, got %v", err)
	}
}

func TestAccountCharge_WithdrawalFee(t *testing.T) {
	def := ChargeDefinition{
		ID:              "chg-wfee",
		Currency:        "USD",
		TimeType:        ChargeTimeWithdrawalFee,
		CalculationType: ChargeCalculationPercentOfAmount,
		FeeInterval:     1,
	}

	pct := decimal.NewFromInt(1)

	charge, err := NewAccountCharge("sc-2", "acc-1", def, ChargeAttachment{Amount: &pct}, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1% of a 300 withdrawal.
	applied, err := charge.UpdateWithdrawalFee(NewMoney("USD", decimal.NewFromInt(300)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !applied.AmountOutstanding.Amount().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected outstanding 3, got %s", applied.AmountOutstanding.Amount())
	}

	// Recomputed fresh for the next withdrawal, no carried state.
	applied, err = applied.UpdateWithdrawalFee(NewMoney("USD", decimal.NewFromInt(500)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !applied.AmountOutstanding.Amount().Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected outstanding 5, got %s", applied.AmountOutstanding.Amount())
	}

	none := applied.WithoutWithdrawalFee()
	if !none.AmountOutstanding.IsZero() {
		t.Errorf("expected zero outstanding on no-fee path, got %s", none.AmountOutstanding)
	}
}

func TestAccountCharge_WithdrawalFee_RepeatedSettlements(t *testing.T) {
	amount := decimal.NewFromInt(5)
	def := ChargeDefinition{
		ID:              "chg-wfee",
		Currency:        "USD",
		TimeType:        ChargeTimeWithdrawalFee,
		CalculationType: ChargeCalculationFlat,
		Amount:          amount,
		FeeInterval:     1,
	}

	charge, err := NewAccountCharge("sc-3", "acc-1", def, ChargeAttachment{}, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three flat-fee withdrawals in a row; every cycle must settle at
	// exactly zero rather than accumulating paid amounts across cycles.
	for i := 0; i < 3; i++ {
		charge, err = charge.UpdateWithdrawalFee(NewMoney("USD", decimal.NewFromInt(100)))
		if err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}

		if !charge.AmountOutstanding.Amount().Equal(amount) {
			t.Fatalf("cycle %d: expected outstanding 5, got %s", i, charge.AmountOutstanding)
		}

		charge, err = charge.Pay(charge.AmountOutstanding)
		if err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}

		if !charge.AmountOutstanding.IsZero() {
			t.Errorf("cycle %d: expected zero outstanding after payment, got %s", i, charge.AmountOutstanding)
		}

		if !charge.Paid {
			t.Errorf("cycle %d: expected paid flag set", i)
		}

		if !charge.AmountPaid.Amount().Equal(amount) {
			t.Errorf("cycle %d: expected paid bucket 5, got %s", i, charge.AmountPaid)
		}
	}
}

func TestChargeTimeType_CanOverrideAccountRules(t *testing.T) {
	if ChargeTimeSavingsActivation.CanOverrideAccountRules() {
		t.Error("activation charges must not override account rules")
	}

	if ChargeTimeWithdrawalFee.CanOverrideAccountRules() {
		t.Error("withdrawal fees must not override account rules")
	}

	if !ChargeTimeAnnualFee.CanOverrideAccountRules() {
		t.Error("annual fees may override account rules")
	}
}
