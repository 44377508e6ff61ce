package domain

import (
	"sort"
	"time"
)

// SortTransactions orders transactions ascending by transaction date, ties
// broken by the monotonic id (ULIDs sort in creation order). The sort is
// stable so replaying it is deterministic.
func SortTransactions(transactions []*LedgerTransaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		if !transactions[i].TransactionDate.Equal(transactions[j].TransactionDate) {
			return transactions[i].TransactionDate.Before(transactions[j].TransactionDate)
		}

		return transactions[i].ID < transactions[j].ID
	})
}

// RecalculateBalances re-walks the transaction list in ascending date order
// and recomputes every running balance from the given opening balance. Each
// transaction's balance validity window is closed the day before the
// transaction that follows it, so adjacent windows never share a day; the
// last window runs to asOf. Same-day neighbors collapse to a one-day window
// via the clamp in UpdateCumulativeBalanceAndDates.
//
// The walk is idempotent: replaying it over the same ordered list from the
// same opening balance always yields the same balances.
func RecalculateBalances(opening Money, allowOverdraft bool, transactions []*LedgerTransaction, asOf time.Time) (Money, error) {
	SortTransactions(transactions)

	running := opening

	var previous *LedgerTransaction

	for _, txn := range transactions {
		if txn.Reversed {
			txn.ZeroBalanceFields()

			continue
		}

		if previous != nil {
			previous.UpdateCumulativeBalanceAndDates(txn.TransactionDate.AddDate(0, 0, -1))
		}

		var err error

		running, err = txn.UpdateRunningBalance(running, allowOverdraft)
		if err != nil {
			return Money{}, err
		}

		previous = txn
	}

	if previous != nil {
		previous.UpdateCumulativeBalanceAndDates(asOf)
	}

	return running, nil
}

// EndOfDayBalancesFor projects the end-of-day balance series across a
// reporting interval. Transactions dated before the interval only move the
// balance carried into it; transactions whose validity window touches the
// interval each contribute one clipped balance row.
func EndOfDayBalancesFor(opening Money, allowOverdraft bool, transactions []*LedgerTransaction, reporting DateInterval) ([]EndOfDayBalance, error) {
	SortTransactions(transactions)

	var balances []EndOfDayBalance

	running := opening

	for _, txn := range transactions {
		if txn.Reversed || txn.TransactionDate.After(reporting.End()) {
			continue
		}

		// Movements dated before the window land in the carried-in balance,
		// whether or not their validity span reaches into the window.
		if txn.TransactionDate.Before(reporting.Start()) {
			var err error

			running, err = txn.applyToBalance(running, allowOverdraft)
			if err != nil {
				return nil, err
			}

			if !txn.SpansAnyPortionOf(reporting) {
				continue
			}
		} else if !txn.SpansAnyPortionOf(reporting) {
			var err error

			running, err = txn.applyToBalance(running, allowOverdraft)
			if err != nil {
				return nil, err
			}

			continue
		}

		balance, err := txn.ToEndOfDayBalanceBoundedBy(running, reporting, allowOverdraft)
		if err != nil {
			return nil, err
		}

		balances = append(balances, balance)
		running = balance.EndOfDayBalance
	}

	// The final window stays in effect through the end of the report, no
	// matter where the last recompute left its stored end date.
	if len(balances) > 0 {
		last := &balances[len(balances)-1]
		last.NumberOfDays = DaysInclusiveBetween(last.Date, reporting.End())
	}

	return balances, nil
}
