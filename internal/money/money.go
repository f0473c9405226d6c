package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Money is a fixed-point amount in currency minor units (piasters, cents).
// Arithmetic never leaves the integer domain; decimals only appear at the
// API boundary via FromDecimalString/Display.
type Money struct {
	AmountMinor int64
	Currency    string
}

func New(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: currency}
}

// FromDecimalString parses a decimal amount ("123.456") and rounds half-up
// to two decimal places before converting to minor units.
func FromDecimalString(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	minor := d.Round(2).Shift(2)
	if !minor.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{AmountMinor: minor.IntPart(), Currency: currency}, nil
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{AmountMinor: m.AmountMinor - other.AmountMinor, Currency: m.Currency}, nil
}

// PercentBps applies a rate in basis points (250 = 2.5%) with half-up
// rounding to the nearest minor unit. The product amount*bps is exact, so a
// single rounding step happens here and nowhere upstream.
func (m Money) PercentBps(bps int64) Money {
	raw := m.AmountMinor * bps
	var rounded int64
	if raw >= 0 {
		rounded = (raw + 5000) / 10000
	} else {
		rounded = -((-raw + 5000) / 10000)
	}
	return Money{AmountMinor: rounded, Currency: m.Currency}
}

// Cmp returns -1, 0 or 1. Panics on currency mismatch are avoided by
// returning an error instead.
func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	switch {
	case m.AmountMinor < other.AmountMinor:
		return -1, nil
	case m.AmountMinor > other.AmountMinor:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) IsPositive() bool { return m.AmountMinor > 0 }
func (m Money) IsZero() bool     { return m.AmountMinor == 0 }

func (m Money) Neg() Money {
	return Money{AmountMinor: -m.AmountMinor, Currency: m.Currency}
}

// AbsDiffMinor returns |m - other| in minor units, ignoring currency; callers
// are expected to have checked the currencies already.
func (m Money) AbsDiffMinor(other Money) int64 {
	d := m.AmountMinor - other.AmountMinor
	if d < 0 {
		d = -d
	}
	return d
}

// Display renders the amount as a plain 2-decimal string ("945.70").
func (m Money) Display() string {
	return decimal.New(m.AmountMinor, -2).StringFixed(2)
}

// DisplayWithCurrency renders for humans, e.g. "945.70 EGP".
func (m Money) DisplayWithCurrency() string {
	return m.Display() + " " + m.Currency
}
