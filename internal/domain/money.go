package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale is the number of fractional digits kept internally.
// Display precision is a currency property and lives outside Money.
const moneyScale = 6

// percentDivisionScale is the scale used when dividing a percentage by 100
// before multiplying, so rounding error does not compound.
const percentDivisionScale = 16

// percentSignificantDigits is the precision percentage-derived amounts are
// rounded to, using banker's rounding.
const percentSignificantDigits = 8

var oneHundred = decimal.NewFromInt(100)

// Money is an immutable currency-scoped decimal amount.
// Arithmetic between two Money values requires identical currencies.
type Money struct {
	currency string
	amount   decimal.Decimal
}

// NewMoney creates a Money value, rounding the amount to the internal scale
// with banker's rounding.
func NewMoney(currency string, amount decimal.Decimal) Money {
	return Money{currency: currency, amount: amount.RoundBank(moneyScale)}
}

// ZeroMoney creates a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{currency: currency, amount: decimal.Zero}
}

// Currency returns the currency code.
func (m Money) Currency() string {
	return m.currency
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Add returns m + o. Fails with ErrCurrencyMismatch on differing currencies.
func (m Money) Add(o Money) (Money, error) {
	if err := m.checkCurrency(o); err != nil {
		return Money{}, err
	}

	return Money{currency: m.currency, amount: m.amount.Add(o.amount)}, nil
}

// Sub returns m - o. Fails with ErrCurrencyMismatch on differing currencies.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.checkCurrency(o); err != nil {
		return Money{}, err
	}

	return Money{currency: m.currency, amount: m.amount.Sub(o.amount)}, nil
}

// Mul returns m scaled by the given factor, rounded to the internal scale.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{currency: m.currency, amount: m.amount.Mul(factor).RoundBank(moneyScale)}
}

// MulInt returns m multiplied by an integer factor.
func (m Money) MulInt(n int) Money {
	return Money{currency: m.currency, amount: m.amount.Mul(decimal.NewFromInt(int64(n)))}
}

// Neg returns m with the sign flipped.
func (m Money) Neg() Money {
	return Money{currency: m.currency, amount: m.amount.Neg()}
}

// Zero returns a zero amount in m's currency.
func (m Money) Zero() Money {
	return ZeroMoney(m.currency)
}

// PercentOf treats m as a base amount and returns percentage% of it.
// A non-positive base yields zero. The division by 100 happens at extended
// precision before the multiplication, and the result is rounded to
// 8 significant digits with banker's rounding.
func (m Money) PercentOf(percentage decimal.Decimal) Money {
	if m.amount.LessThanOrEqual(decimal.Zero) {
		return ZeroMoney(m.currency)
	}

	multiplicand := percentage.DivRound(oneHundred, percentDivisionScale)
	raw := roundSignificant(m.amount.Mul(multiplicand), percentSignificantDigits)

	// The significant-digit rounding is the final word; re-rounding to the
	// internal scale would truncate results finer than six decimals.
	return Money{currency: m.currency, amount: raw}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsGreaterThanZero reports whether the amount is strictly positive.
func (m Money) IsGreaterThanZero() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is strictly negative.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equal reports whether currency and amount are both equal.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

// GreaterThan compares amounts. Both values are assumed to share a currency;
// ordering across currencies is meaningless.
func (m Money) GreaterThan(o Money) bool {
	return m.amount.GreaterThan(o.amount)
}

// LessThan compares amounts, same-currency assumption as GreaterThan.
func (m Money) LessThan(o Money) bool {
	return m.amount.LessThan(o.amount)
}

// String renders the amount with its currency code.
func (m Money) String() string {
	return m.currency + " " + m.amount.String()
}

type moneyJSON struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Currency: m.currency, Amount: m.amount})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = NewMoney(raw.Currency, raw.Amount)

	return nil
}

func (m Money) checkCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}

	return nil
}

// roundSignificant rounds d to the given number of significant digits using
// banker's rounding.
func roundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}

	integerDigits := d.NumDigits() + int(d.Exponent())

	return d.RoundBank(digits - int32(integerDigits))
}
