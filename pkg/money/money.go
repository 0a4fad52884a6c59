// Package money holds the fixed-point amount type used for every price and
// total. Arithmetic stays in decimal; values are rounded to two places only
// when rendered.
package money

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits shown for currency values.
const Places = 2

// Amount is an exact decimal monetary value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero returns an amount equal to 0.
func Zero() Amount { return Amount{d: decimal.Zero} }

// Parse reads a decimal string such as "10.00" or "3.5".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromInt returns a whole-unit amount.
func FromInt(v int64) Amount { return Amount{d: decimal.NewFromInt(v)} }

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// MulQty multiplies by an integer quantity without losing precision.
func (a Amount) MulQty(qty int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))}
}

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

// Equal compares numerically, so 10 equals 10.00.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders the display form with two fractional digits.
func (a Amount) String() string { return a.d.StringFixed(Places) }

// Exact renders every stored digit, for persistence.
func (a Amount) Exact() string { return a.d.String() }

// Decimal exposes the underlying value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// MarshalJSON writes a bare JSON number rounded to two places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Zero()
		return nil
	}
	data = bytes.Trim(data, `"`)
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the exact decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.Exact(), nil
}

// Scan reads TEXT, REAL or INTEGER columns.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan: %w", err)
	}
	a.d = d
	return nil
}
