// Package core holds the closed transaction domain: money, the enumerated
// transaction kinds and categories, and the normalization step that turns
// untrusted records into domain values.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. Sums of Money are exact.
type Money struct {
	Cents int64
}

// MaxAmount is the largest single amount the domain accepts. Coercion clamps
// to it, so a sum of Money stays far from the int64 limit.
var MaxAmount = Money{Cents: 100 * 1_000_000_000_000}

var maxUnits = decimal.New(MaxAmount.Cents, -2)

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, the dot is a thousands separator (1.234,56). Negative values and
// anything that is not a plain decimal number return ErrInvalidAmount, as do
// amounts above MaxAmount.
//
// Examples:
//
//	ParseMoney("12.34")    -> 1234
//	ParseMoney("12,34")    -> 1234
//	ParseMoney("1.234,56") -> 123456
//	ParseMoney("12.345")   -> 1235
func ParseMoney(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil || d.GreaterThan(maxUnits) {
		return Money{}, ErrInvalidAmount
	}
	return fromDecimal(d), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// fromDecimal rounds d half-up to cents, clamped to MaxAmount.
func fromDecimal(d decimal.Decimal) Money {
	d = d.Abs()
	if d.GreaterThan(maxUnits) {
		return MaxAmount
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// MoneyFromFloat converts a float amount in currency units to Money. The
// sign is dropped, NaN becomes zero and anything above MaxAmount, infinities
// included, is clamped to MaxAmount.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) {
		return Money{}
	}
	if math.IsInf(f, 0) {
		return MaxAmount
	}
	return fromDecimal(decimal.NewFromFloat(f))
}

// Units returns the amount in currency units for display and serialization.
// Use Cents for arithmetic.
func (m Money) Units() float64 {
	f, _ := decimal.New(m.Cents, -2).Float64()
	return f
}

// Add saturates at the int64 limits instead of wrapping.
func (m Money) Add(o Money) Money {
	switch {
	case o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && m.Cents < math.MinInt64-o.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	if o.Cents == math.MinInt64 {
		return m.Add(Money{Cents: math.MaxInt64}).Add(Money{Cents: 1})
	}
	return m.Add(Money{Cents: -o.Cents})
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Validate rejects negative amounts. Zero is a valid amount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Ratio returns m/total as a percentage, or 0 when total is not positive.
func (m Money) Ratio(total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(m.Cents) / float64(total.Cents) * 100
}
