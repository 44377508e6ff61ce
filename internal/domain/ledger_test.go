package domain

import (
	"testing"
	"time"
)

func TestSortTransactions(t *testing.T) {
	now := date(2024, time.March, 1)

	a := NewDeposit("01A", "acc-1", date(2024, time.March, 5), usd(10), "", now)
	b := NewDeposit("01B", "acc-1", date(2024, time.March, 5), usd(20), "", now)
	c := NewDeposit("01C", "acc-1", date(2024, time.March, 1), usd(30), "", now)

	transactions := []*LedgerTransaction{b, a, c}
	SortTransactions(transactions)

	if transactions[0] != c || transactions[1] != a || transactions[2] != b {
		t.Errorf("expected order [01C 01A 01B], got [%s %s %s]",
			transactions[0].ID, transactions[1].ID, transactions[2].ID)
	}
}

func TestRecalculateBalances(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("01A", "acc-1", date(2024, time.March, 1), usd(100), "", now)
	withdrawal := NewWithdrawal("01B", "acc-1", date(2024, time.March, 10), usd(30), "", now)
	interest := NewInterestPosting("01C", "acc-1", date(2024, time.March, 20), usd(5), now)

	transactions := []*LedgerTransaction{interest, deposit, withdrawal}

	closing, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !closing.Equal(usd(75)) {
		t.Errorf("expected closing balance 75, got %s", closing)
	}

	if !deposit.RunningBalance.Equal(usd(100)) {
		t.Errorf("expected deposit running balance 100, got %s", deposit.RunningBalance)
	}

	if !withdrawal.RunningBalance.Equal(usd(70)) {
		t.Errorf("expected withdrawal running balance 70, got %s", withdrawal.RunningBalance)
	}

	if !interest.RunningBalance.Equal(usd(75)) {
		t.Errorf("expected interest running balance 75, got %s", interest.RunningBalance)
	}

	// Each window closes the day before the next transaction, the last at asOf.
	if !deposit.BalanceEndDate.Equal(date(2024, time.March, 9)) {
		t.Errorf("expected deposit window end 2024-03-09, got %s", deposit.BalanceEndDate)
	}

	if !withdrawal.BalanceEndDate.Equal(date(2024, time.March, 19)) {
		t.Errorf("expected withdrawal window end 2024-03-19, got %s", withdrawal.BalanceEndDate)
	}

	if !interest.BalanceEndDate.Equal(date(2024, time.March, 31)) {
		t.Errorf("expected interest window end 2024-03-31, got %s", interest.BalanceEndDate)
	}

	// Windows tile the full span with no shared boundary day.
	totalDays := deposit.BalanceNumberOfDays + withdrawal.BalanceNumberOfDays + interest.BalanceNumberOfDays
	if want := DaysInclusiveBetween(date(2024, time.March, 1), date(2024, time.March, 31)); totalDays != want {
		t.Errorf("expected windows to cover %d days, got %d", want, totalDays)
	}
}

func TestRecalculateBalances_SameDayNeighbors(t *testing.T) {
	now := date(2024, time.March, 1)

	first := NewDeposit("01A", "acc-1", date(2024, time.March, 5), usd(100), "", now)
	second := NewDeposit("01B", "acc-1", date(2024, time.March, 5), usd(50), "", now)

	transactions := []*LedgerTransaction{first, second}

	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The earlier same-day window collapses to one day instead of going negative.
	if first.BalanceNumberOfDays != 1 {
		t.Errorf("expected one-day window for superseded balance, got %d", first.BalanceNumberOfDays)
	}

	if !first.BalanceEndDate.Equal(date(2024, time.March, 5)) {
		t.Errorf("expected window end 2024-03-05, got %s", first.BalanceEndDate)
	}
}

func TestRecalculateBalances_Idempotent(t *testing.T) {
	now := date(2024, time.March, 1)

	transactions := []*LedgerTransaction{
		NewDeposit("01A", "acc-1", date(2024, time.March, 1), usd(100), "", now),
		NewWithdrawal("01B", "acc-1", date(2024, time.March, 10), usd(30), "", now),
	}

	first, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Equal(second) {
		t.Errorf("expected identical closing balances on replay: %s vs %s", first, second)
	}

	for _, txn := range transactions {
		if !txn.CumulativeBalance.Equal(txn.RunningBalance.MulInt(txn.BalanceNumberOfDays)) {
			t.Errorf("cumulative balance drifted on replay for %s", txn.ID)
		}
	}
}

func TestRecalculateBalances_SkipsReversed(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("01A", "acc-1", date(2024, time.March, 1), usd(100), "", now)
	voided := NewWithdrawal("01B", "acc-1", date(2024, time.March, 10), usd(30), "", now)

	transactions := []*LedgerTransaction{deposit, voided}

	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := voided.Reverse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closing, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !closing.Equal(usd(100)) {
		t.Errorf("expected closing balance 100 after reversal, got %s", closing)
	}

	if !voided.RunningBalance.IsZero() || voided.BalanceNumberOfDays != 0 {
		t.Error("expected reversed transaction's balance fields to stay zeroed")
	}

	// The surviving transaction's window now runs to asOf.
	if !deposit.BalanceEndDate.Equal(date(2024, time.March, 31)) {
		t.Errorf("expected deposit window end 2024-03-31, got %s", deposit.BalanceEndDate)
	}
}

func TestEndOfDayBalancesFor(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("01A", "acc-1", date(2024, time.February, 20), usd(200), "", now)
	withdrawal := NewWithdrawal("01B", "acc-1", date(2024, time.March, 10), usd(50), "", now)
	interest := NewInterestPosting("01C", "acc-1", date(2024, time.March, 25), usd(5), now)

	transactions := []*LedgerTransaction{deposit, withdrawal, interest}

	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reporting, err := NewDateInterval(date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balances, err := EndOfDayBalancesFor(usd(0), false, transactions, reporting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 3 {
		t.Fatalf("expected 3 balance rows, got %d", len(balances))
	}

	// The February deposit carries 200 into the window, clipped to its start.
	first := balances[0]
	if !first.Date.Equal(date(2024, time.March, 1)) || !first.EndOfDayBalance.Equal(usd(200)) {
		t.Errorf("expected carried balance 200 from 2024-03-01, got %s from %s", first.EndOfDayBalance, first.Date)
	}

	// 2024-03-01 through 2024-03-09, the day before the next window opens.
	if first.NumberOfDays != 9 {
		t.Errorf("expected 9 days, got %d", first.NumberOfDays)
	}

	second := balances[1]
	if !second.EndOfDayBalance.Equal(usd(150)) {
		t.Errorf("expected 150 after withdrawal, got %s", second.EndOfDayBalance)
	}

	third := balances[2]
	if !third.EndOfDayBalance.Equal(usd(155)) {
		t.Errorf("expected 155 after interest, got %s", third.EndOfDayBalance)
	}

	// The last window is clipped to the reporting end.
	if third.NumberOfDays != 7 {
		t.Errorf("expected 7 days, got %d", third.NumberOfDays)
	}
}

func TestEndOfDayBalancesFor_ExcludesReversed(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("01A", "acc-1", date(2024, time.March, 1), usd(100), "", now)
	voided := NewWithdrawal("01B", "acc-1", date(2024, time.March, 10), usd(40), "", now)

	transactions := []*LedgerTransaction{deposit, voided}

	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := voided.Reverse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reporting, err := NewDateInterval(date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balances, err := EndOfDayBalancesFor(usd(0), false, transactions, reporting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 1 {
		t.Fatalf("expected 1 balance row, got %d", len(balances))
	}

	if !balances[0].EndOfDayBalance.Equal(usd(100)) {
		t.Errorf("expected 100, got %s", balances[0].EndOfDayBalance)
	}
}

func TestEndOfDayBalancesFor_ExtendsFinalWindow(t *testing.T) {
	now := date(2024, time.March, 1)

	deposit := NewDeposit("01A", "acc-1", date(2024, time.March, 5), usd(100), "", now)

	transactions := []*LedgerTransaction{deposit}

	// The last recompute stopped at the transaction's own date, leaving a
	// one-day stored window.
	if _, err := RecalculateBalances(usd(0), false, transactions, date(2024, time.March, 5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reporting, err := NewDateInterval(date(2024, time.March, 1), date(2024, time.March, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balances, err := EndOfDayBalancesFor(usd(0), false, transactions, reporting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 1 {
		t.Fatalf("expected 1 balance row, got %d", len(balances))
	}

	// The report extends the final balance through the end of the window.
	if balances[0].NumberOfDays != 6 {
		t.Errorf("expected final window to span 6 days, got %d", balances[0].NumberOfDays)
	}
}
