// Package money provides the fixed-point decimal amount type shared by the
// ledger, the transaction processor, and every wire envelope that carries a
// monetary value.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
)

// Currency is a closed set of ISO-4217-style codes this core understands.
// Cross-currency arithmetic and transfers are rejected rather than
// silently converted — FX conversion is a separate concern.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, GBP:
		return true
	default:
		return false
	}
}

// Money is a decimal amount paired with its currency. The zero value is
// not meaningful; always construct via New or Parse.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// New builds a Money value from a decimal amount.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Parse builds a Money value from a decimal string, e.g. "100.00".
func Parse(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, nexumerrors.InvalidInput("amount", err.Error())
	}
	return Money{Amount: d, Currency: currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.Sign() > 0
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.Sign() == 0
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return nexumerrors.CurrencyMismatch(string(m.Currency), string(other.Currency))
	}
	return nil
}

// Add returns m + other. Fails with a ValidationError-kind ServiceError if
// the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails on currency mismatch.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Cmp compares m and other, requiring matching currencies.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// GreaterThanOrEqual reports whether m >= other, requiring matching currencies.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	cmp, err := m.Cmp(other)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// Negate returns the additive inverse of m, same currency.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}
