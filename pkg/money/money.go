// Package money holds amounts as integer cents and converts them to decimal
// numbers at the API boundary.
package money

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units.
type Cents int64

const scale = 2

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal amount, rejecting sub-cent precision.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	if !d.Equal(d.Round(scale)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), scale)
	}
	return Cents(d.Mul(hundred).IntPart()), nil
}

// Parse converts a decimal string such as "69.90".
func Parse(value string) (Cents, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(value string) Cents {
	c, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -scale)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(scale)
}

// Times multiplies by a quantity.
func (c Cents) Times(qty int) Cents {
	return c * Cents(qty)
}

// MarshalJSON writes a bare JSON number (69.9).
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "" || raw == "null" {
		*c = 0
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
