// Package pricing parses, validates and does arithmetic on monetary values.
//
// Money is held as an integer significand with a base-10 exponent, so sums and
// products are exact. Nothing in this package converts a price to float64.
// All functions are pure and safe for concurrent use.
package pricing

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of fractional digits used by Display.
const DisplayPlaces = 2

// Digit limits of a Postgres NUMERIC value.
const (
	MaxIntegerDigits  = 131072
	MaxFractionDigits = 16383
)

// One or more digits, optionally a single point followed by one or more digits.
var grammar = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Money is a non-negative exact decimal amount. The zero value is zero.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{}

// Parse validates input against the decimal grammar and returns the exact
// value it denotes. Every digit of input is preserved, up to the digit limits
// of the NUMERIC columns prices are stored in.
func Parse(input string) (Money, error) {
	if !grammar.MatchString(input) {
		if rest, ok := strings.CutPrefix(input, "-"); ok && grammar.MatchString(rest) {
			return Money{}, priceError(input, ErrNegativeValue)
		}
		return Money{}, priceError(input, ErrMalformedInput)
	}
	whole, frac, _ := strings.Cut(input, ".")
	if len(whole) > MaxIntegerDigits || len(frac) > MaxFractionDigits {
		return Money{}, priceError(input, ErrOutOfRange)
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return Money{}, priceError(input, ErrMalformedInput)
	}
	return Money{d: d}, nil
}

// MustParse is Parse for constants and tests. It panics on invalid input.
func MustParse(input string) Money {
	m, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical representation: no leading zeros in the
// integer part and no trailing zeros in the fraction. The result always
// parses back to an equal Money.
func (m Money) String() string {
	return m.d.String()
}

// Display rounds half away from zero to DisplayPlaces fractional digits.
// Use it only at the final presentation step.
func (m Money) Display() string {
	return m.d.StringFixed(DisplayPlaces)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Equal reports numeric equality, so 10.50 equals 10.5.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Cmp returns -1, 0 or +1 as m is less than, equal to, or greater than o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// IsZero reports whether m is zero at any scale, so "0.00" counts.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// MarshalJSON encodes Money as a JSON string. The wire format is never a
// JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts only a JSON string holding a valid price.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return priceError(string(data), ErrMalformedInput)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
