// Package money implements fixed-precision currency arithmetic. Amounts are
// held as integer minor units (cents) so that sums and percentage math never
// accumulate floating-point drift; rounding to the cent happens exactly once
// per derived value.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents).
type Money int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a major-unit decimal to Money, rounding half-up to
// the nearest cent.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

// FromFloat converts a major-unit float (e.g. a parsed JSON number) to Money.
func FromFloat(f float64) Money {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Parse converts a decimal string ("1210.00") to Money.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount in major units with two decimal places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Float64 returns the amount in major units. Exact for any value that fits
// in a float64 mantissa, which covers every realistic budget.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money        { return m + o }
func (m Money) Sub(o Money) Money        { return m - o }
func (m Money) IsZero() bool             { return m == 0 }
func (m Money) IsNegative() bool         { return m < 0 }
func (m Money) GreaterThan(o Money) bool { return m > o }

// Percent returns rate% of m, rounded half-up once. rate is a percentage in
// [0,100], e.g. 21 for 21% VAT.
func (m Money) Percent(rate decimal.Decimal) Money {
	return FromDecimal(m.Decimal().Mul(rate).Div(hundred))
}

// MarshalJSON encodes the amount as a plain two-decimal number, matching the
// wire shape clients already consume.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number (or quoted decimal string).
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan reads a NUMERIC column as returned by lib/pq.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		*m = FromDecimal(decimal.NewFromInt(v))
		return nil
	case float64:
		*m = FromFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into money.Money", src)
	}
}

// Value writes the amount as a two-decimal string for a NUMERIC column.
func (m Money) Value() (driver.Value, error) {
	return m.Decimal().StringFixed(2), nil
}
