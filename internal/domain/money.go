package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an immutable amount in a single currency.
// Amounts are non-negative and carry at most two decimal places.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, unit currency.Unit) (Money, error) {
	m := Money{Amount: amount, Currency: unit}

	if err := m.Validate(); err != nil {
		return Money{}, err
	}

	return m, nil
}

func ZeroMoney(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}

func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return fmt.Errorf("amount[%s] is negative", m.Amount)
	}

	if !m.Amount.Equal(m.Amount.Round(2)) {
		return fmt.Errorf("amount[%s] has more than 2 decimal places", m.Amount)
	}

	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub rejects results below zero: money amounts never go negative.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	result := m.Amount.Sub(other.Amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("result[%s] is negative", result)
	}

	return Money{Amount: result, Currency: m.Currency}, nil
}

func (m Money) MulInt(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// MulRate multiplies by an arbitrary rate and rounds to 2 decimal places.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate).Round(2), Currency: m.Currency}
}

func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}

	return m.Amount.Cmp(other.Amount), nil
}

func (m Money) Equal(other Money) bool {
	return m.Currency.String() == other.Currency.String() && m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency.String() != other.Currency.String() {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return nil
}
