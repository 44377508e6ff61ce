package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func usd(amount int64) Money {
	return NewMoney("USD", decimal.NewFromInt(amount))
}

func TestLedgerTransaction_Classification(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("txn-1", "acc-1", now, usd(100), "", now)
	if !deposit.IsCredit() || deposit.IsDebit() {
		t.Error("deposit must classify as credit")
	}

	withdrawal := NewWithdrawal("txn-2", "acc-1", now, usd(100), "", now)
	if !withdrawal.IsDebit() || withdrawal.IsCredit() {
		t.Error("withdrawal must classify as debit")
	}

	waiver := NewWaiveCharge("txn-3", "acc-1", now, usd(10), ChargePaidBy{ChargeID: "sc-1", Amount: usd(10)}, now)
	if waiver.IsCredit() || waiver.IsDebit() {
		t.Error("waiver moves no money and must be neither credit nor debit")
	}

	approval := NewTransferApproval("txn-4", "acc-1", now, usd(100), now)
	if approval.IsCredit() || approval.IsDebit() {
		t.Error("transfer approval is status only and must be neither credit nor debit")
	}

	refund := NewTransferWithdrawal("txn-5", "acc-1", now, usd(100), now)
	if !refund.IsCredit() {
		t.Error("withdrawn transfer refunds the account and must classify as credit")
	}
}

func TestLedgerTransaction_ReversedNeverClassifies(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("txn-1", "acc-1", now, usd(100), "", now)
	if err := deposit.Reverse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deposit.IsCredit() || deposit.IsDebit() {
		t.Error("reversed transaction must be neither credit nor debit")
	}

	reversal := NewReversal("txn-2", deposit, now)
	if reversal.IsCredit() || reversal.IsDebit() {
		t.Error("reversal entry must be neither credit nor debit")
	}
}

func TestLedgerTransaction_UpdateRunningBalance(t *testing.T) {
	now := date(2024, time.March, 1)

	tests := []struct {
		name            string
		txn             *LedgerTransaction
		opening         Money
		allowOverdraft  bool
		expectedBalance Money
	}{
		{
			name:            "credit adds",
			txn:             NewDeposit("txn-1", "acc-1", now, usd(100), "", now),
			opening:         usd(50),
			expectedBalance: usd(150),
		},
		{
			name:            "debit from positive balance subtracts",
			txn:             NewWithdrawal("txn-2", "acc-1", now, usd(30), "", now),
			opening:         usd(100),
			expectedBalance: usd(70),
		},
		{
			name:            "debit from zero without overdraft leaves balance unchanged",
			txn:             NewWithdrawal("txn-3", "acc-1", now, usd(30), "", now),
			opening:         usd(0),
			expectedBalance: usd(0),
		},
		{
			name:            "debit from zero with overdraft goes negative",
			txn:             NewWithdrawal("txn-4", "acc-1", now, usd(30), "", now),
			opening:         usd(0),
			allowOverdraft:  true,
			expectedBalance: usd(-30),
		},
		{
			name:            "debit into overdraft from positive balance",
			txn:             NewWithdrawal("txn-5", "acc-1", now, usd(130), "", now),
			opening:         usd(100),
			expectedBalance: usd(-30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.txn.UpdateRunningBalance(tt.opening, tt.allowOverdraft)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.Equal(tt.expectedBalance) {
				t.Errorf("expected %s, got %s", tt.expectedBalance, got)
			}

			if !tt.txn.RunningBalance.Equal(tt.expectedBalance) {
				t.Errorf("running balance not stored: %s", tt.txn.RunningBalance)
			}

			if tt.expectedBalance.IsNegative() {
				if !tt.txn.OverdraftAmount.Equal(tt.expectedBalance.Neg()) {
					t.Errorf("expected overdraft %s, got %s", tt.expectedBalance.Neg(), tt.txn.OverdraftAmount)
				}
			} else if !tt.txn.OverdraftAmount.IsZero() {
				t.Errorf("expected zero overdraft, got %s", tt.txn.OverdraftAmount)
			}
		})
	}
}

func TestLedgerTransaction_ToEndOfDayBalance(t *testing.T) {
	tests := []struct {
		name         string
		txn          *LedgerTransaction
		opening      Money
		nextDate     time.Time
		expectedEOD  Money
		expectedDays int
	}{
		{
			name:         "balance changed over multi day span loses one day",
			txn:          NewDeposit("txn-1", "acc-1", date(2024, time.March, 1), usd(100), "", date(2024, time.March, 1)),
			opening:      usd(0),
			nextDate:     date(2024, time.March, 10),
			expectedEOD:  usd(100),
			expectedDays: 9,
		},
		{
			name:         "single day span keeps one day",
			txn:          NewDeposit("txn-2", "acc-1", date(2024, time.March, 1), usd(100), "", date(2024, time.March, 1)),
			opening:      usd(0),
			nextDate:     date(2024, time.March, 1),
			expectedEOD:  usd(100),
			expectedDays: 1,
		},
		{
			name:         "clamped debit leaves balance and full span",
			txn:          NewWithdrawal("txn-3", "acc-1", date(2024, time.March, 1), usd(30), "", date(2024, time.March, 1)),
			opening:      usd(0),
			nextDate:     date(2024, time.March, 10),
			expectedEOD:  usd(0),
			expectedDays: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.txn.ToEndOfDayBalance(tt.opening, tt.nextDate, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.EndOfDayBalance.Equal(tt.expectedEOD) {
				t.Errorf("expected end-of-day %s, got %s", tt.expectedEOD, got.EndOfDayBalance)
			}

			if got.NumberOfDays != tt.expectedDays {
				t.Errorf("expected %d days, got %d", tt.expectedDays, got.NumberOfDays)
			}
		})
	}
}

func TestLedgerTransaction_ToEndOfDayBalanceBoundedBy(t *testing.T) {
	window, err := NewDateInterval(date(2024, time.March, 10), date(2024, time.March, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("window starting before bound carries balance through", func(t *testing.T) {
		txn := NewDeposit("txn-1", "acc-1", date(2024, time.March, 1), usd(100), "", date(2024, time.March, 1))
		txn.UpdateCumulativeBalanceAndDates(date(2024, time.March, 15))

		got, err := txn.ToEndOfDayBalanceBoundedBy(usd(100), window, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !got.EndOfDayBalance.Equal(usd(100)) || !got.OpeningBalance.Equal(usd(100)) {
			t.Errorf("expected balance carried through at 100, got opening %s end %s", got.OpeningBalance, got.EndOfDayBalance)
		}

		if !got.Date.Equal(window.Start()) {
			t.Errorf("expected clipped start %s, got %s", window.Start(), got.Date)
		}

		// March 10 through March 15 inclusive.
		if got.NumberOfDays != 6 {
			t.Errorf("expected 6 days, got %d", got.NumberOfDays)
		}
	})

	t.Run("window running past bound end is clipped", func(t *testing.T) {
		txn := NewDeposit("txn-2", "acc-1", date(2024, time.March, 15), usd(50), "", date(2024, time.March, 15))
		txn.UpdateCumulativeBalanceAndDates(date(2024, time.March, 31))

		got, err := txn.ToEndOfDayBalanceBoundedBy(usd(100), window, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !got.EndOfDayBalance.Equal(usd(150)) {
			t.Errorf("expected 150, got %s", got.EndOfDayBalance)
		}

		// March 15 through March 20 inclusive.
		if got.NumberOfDays != 6 {
			t.Errorf("expected 6 days, got %d", got.NumberOfDays)
		}
	})
}

func TestLedgerTransaction_UpdateCumulativeBalanceAndDates(t *testing.T) {
	now := date(2024, time.March, 10)

	txn := NewDeposit("txn-1", "acc-1", now, usd(100), "", now)
	if _, err := txn.UpdateRunningBalance(usd(0), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txn.UpdateCumulativeBalanceAndDates(date(2024, time.March, 14))

	if txn.BalanceNumberOfDays != 5 {
		t.Errorf("expected 5 days, got %d", txn.BalanceNumberOfDays)
	}

	if !txn.CumulativeBalance.Equal(usd(500)) {
		t.Errorf("expected cumulative 500, got %s", txn.CumulativeBalance)
	}

	// An end date earlier than the transaction date is clamped to it.
	txn.UpdateCumulativeBalanceAndDates(date(2024, time.March, 1))

	if !txn.BalanceEndDate.Equal(now) {
		t.Errorf("expected end date clamped to %s, got %s", now, txn.BalanceEndDate)
	}

	if txn.BalanceNumberOfDays != 1 {
		t.Errorf("expected 1 day, got %d", txn.BalanceNumberOfDays)
	}
}

func TestLedgerTransaction_Reverse(t *testing.T) {
	now := date(2024, time.March, 10)

	txn := NewDeposit("txn-1", "acc-1", now, usd(100), "", now)
	if _, err := txn.UpdateRunningBalance(usd(0), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txn.UpdateCumulativeBalanceAndDates(date(2024, time.March, 14))

	if err := txn.Reverse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !txn.Reversed {
		t.Error("expected reversed flag set")
	}

	if !txn.RunningBalance.IsZero() || !txn.CumulativeBalance.IsZero() || txn.BalanceNumberOfDays != 0 {
		t.Error("expected balance bookkeeping zeroed")
	}

	if err := txn.Reverse(); !errors.Is(err, ErrTransactionAlreadyVoided) {
		t.Errorf("expected ErrTransactionAlreadyVoided, got %v", err)
	}
}

func TestNewReversal(t *testing.T) {
	now := date(2024, time.March, 10)

	hold := NewHoldAmount("txn-1", "acc-1", now, usd(40), true, now)

	reversal := NewReversal("txn-2", hold, now)

	if !reversal.Reversal || reversal.Reversed {
		t.Error("expected a reversal entry, not a voided one")
	}

	if reversal.OriginalTransactionID != hold.ID {
		t.Errorf("expected back-reference to %s, got %s", hold.ID, reversal.OriginalTransactionID)
	}

	if !reversal.Amount.Equal(hold.Amount) || reversal.TypeOf != hold.TypeOf {
		t.Error("expected reversal to mirror the original's type and amount")
	}

	if !reversal.LienAllowed {
		t.Error("expected lien flag copied from the original")
	}
}

func TestLedgerTransaction_IsAcceptableForDailyBalance(t *testing.T) {
	period, err := NewDateInterval(date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inRange := NewDeposit("txn-1", "acc-1", date(2024, time.March, 10), usd(100), "", date(2024, time.March, 10))
	inRange.UpdateCumulativeBalanceAndDates(date(2024, time.March, 15))

	if !inRange.IsAcceptableForDailyBalance(period) {
		t.Error("expected dated in-range transaction with a day span to count")
	}

	outOfRange := NewDeposit("txn-2", "acc-1", date(2024, time.April, 2), usd(100), "", date(2024, time.April, 2))
	outOfRange.UpdateCumulativeBalanceAndDates(date(2024, time.April, 5))

	if outOfRange.IsAcceptableForDailyBalance(period) {
		t.Error("expected out-of-range transaction to be excluded")
	}

	voided := NewDeposit("txn-3", "acc-1", date(2024, time.March, 10), usd(100), "", date(2024, time.March, 10))
	voided.UpdateCumulativeBalanceAndDates(date(2024, time.March, 15))

	if err := voided.Reverse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if voided.IsAcceptableForDailyBalance(period) {
		t.Error("expected reversed transaction to be excluded")
	}
}

func TestLedgerTransaction_ChargeAssociations(t *testing.T) {
	now := date(2024, time.March, 10)

	fee := NewPayCharge("txn-1", "acc-1", now, usd(10), ChargePaidBy{
		ChargeID:         "sc-1",
		Amount:           usd(10),
		CanOverrideRules: true,
	}, now)

	if !fee.IsFeeCharge() || fee.IsPenaltyCharge() {
		t.Error("expected a non-penalty fee charge")
	}

	if !fee.CanOverrideAccountRules() {
		t.Error("expected override flag carried on the association")
	}

	penalty := NewPayCharge("txn-2", "acc-1", now, usd(10), ChargePaidBy{
		ChargeID: "sc-2",
		Amount:   usd(10),
		Penalty:  true,
	}, now)

	if !penalty.IsPenaltyCharge() || penalty.IsFeeCharge() {
		t.Error("expected a penalty charge")
	}

	plain := NewDeposit("txn-3", "acc-1", now, usd(100), "", now)
	if _, ok := plain.ChargePaid(); ok {
		t.Error("expected no charge association on a deposit")
	}
}
