// Package money implements fixed-point two-decimal money as integer cents.
// All arithmetic that must preserve totals happens on Cents; float64 appears
// only at the conversion boundary.
package money

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a signed money amount in cents.
type Cents int64

const CentsPerUnit Cents = 100

// SettleThreshold is the tolerance under which a balance counts as settled.
const SettleThreshold Cents = 1

// MaxAmount bounds any single amount the service accepts ($10M). Keeping
// pools and weights under it keeps the allocator's cross products inside
// int64.
const MaxAmount Cents = 1_000_000_000

// FromFloat converts a decimal amount to cents, rounding half-up away from
// zero to the nearest cent.
func FromFloat(v float64) Cents {
	if v >= 0 {
		return Cents(v*100 + 0.5)
	}
	return -Cents(-v*100 + 0.5)
}

// Parse converts a decimal string to cents without a float64 round trip when
// the input has at most two fraction digits. Inputs with more fraction
// digits (some clients serialize floats with full precision) fall back to
// float conversion with half-up rounding.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}

	if len(fracPart) > 2 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if neg {
			f = -f
		}
		return FromFloat(f), nil
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var frac int64
	if fracPart != "" {
		frac, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(fracPart) == 1 {
			frac *= 10
		}
	}

	c := Cents(units*100 + frac)
	if neg {
		c = -c
	}
	return c, nil
}

// Float returns the decimal value. Display and JSON encoding should prefer
// String; Float exists for percentage math where exactness is not required.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String formats the amount with exactly two decimals and a sign for
// negative values.
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

func (c Cents) IsZero() bool     { return c == 0 }
func (c Cents) IsPositive() bool { return c > 0 }
func (c Cents) IsNegative() bool { return c < 0 }

// Settled reports whether the amount is within the settle threshold of zero.
// With integer cents the threshold collapses to exact zero, but callers go
// through this method so the tolerance lives in one place.
func (c Cents) Settled() bool {
	return c.Abs() < SettleThreshold
}

// MarshalJSON encodes the amount as a plain two-decimal number literal,
// e.g. 12.50, never as a quoted string or a cent count.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or string and parses it exactly.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*c = 0
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value implements driver.Valuer; money columns are DECIMAL(12,2) so the
// amount travels as its exact decimal string.
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for the representations the postgres and
// sqlite drivers hand back for DECIMAL columns.
func (c *Cents) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case int64:
		*c = Cents(v * 100)
		return nil
	case float64:
		*c = FromFloat(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into money.Cents", src)
	}
}
