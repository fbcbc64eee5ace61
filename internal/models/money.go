package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (pence, cents).
// The rental API speaks plain decimal numbers; conversion happens only in the JSON codec.
type Money int64

const minorPerMajor = 100

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountOverflow = errors.New("amount out of range")
)

// FromMajor converts a whole number of major units to Money.
func FromMajor(v int64) Money {
	return Money(v * minorPerMajor)
}

// ParseMoney parses a decimal string such as "900" or "12.50" exactly.
// Digits past the second decimal place round half away from zero.
// Exponents, NaN and infinities are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	digits := s
	neg := false
	switch digits[0] {
	case '-':
		neg = true
		digits = digits[1:]
	case '+':
		digits = digits[1:]
	}

	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	var v uint64
	for _, c := range whole + padFraction(frac) {
		next, ok := mulAdd(v, 10, uint64(c-'0'))
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
		}
		v = next
	}
	if len(frac) > 2 && frac[2] >= '5' {
		next, ok := mulAdd(v, 1, 1)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
		}
		v = next
	}

	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	if v > limit {
		return 0, fmt.Errorf("%w: %q", ErrAmountOverflow, s)
	}
	if neg {
		return Money(-int64(v - 1) - 1), nil
	}
	return Money(v), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// padFraction returns exactly two fractional digits.
func padFraction(frac string) string {
	if len(frac) >= 2 {
		return frac[:2]
	}
	return frac + strings.Repeat("0", 2-len(frac))
}

func mulAdd(v, mul, add uint64) (uint64, bool) {
	hi, lo := bits.Mul64(v, mul)
	if hi != 0 {
		return 0, false
	}
	sum, carry := bits.Add64(lo, add, 0)
	return sum, carry == 0
}

// Major returns the amount as a decimal number of major units.
func (m Money) Major() float64 {
	return float64(m) / minorPerMajor
}

func (m Money) String() string {
	sign := ""
	v := absUint(int64(m))
	if m < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorPerMajor, v%minorPerMajor)
}

func absUint(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

// MulDiv returns m*num/den rounded half away from zero, without going through
// floats. The product is carried in 128 bits; a result outside int64 or a zero
// den is an error.
func (m Money) MulDiv(num, den int64) (Money, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInvalidAmount)
	}
	neg := (m < 0) != (num < 0) != (den < 0)
	d := absUint(den)

	hi, lo := bits.Mul64(absUint(int64(m)), absUint(num))
	if hi >= d {
		return 0, ErrAmountOverflow
	}
	q, r := bits.Div64(hi, lo, d)
	if r >= d-r {
		q++
	}
	if q > math.MaxInt64 {
		return 0, ErrAmountOverflow
	}
	if neg {
		return Money(-int64(q)), nil
	}
	return Money(q), nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = 0
		return nil
	}
	// DECIMAL columns come back as strings from some endpoints.
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// UnmarshalYAML lets seed files write prices as plain decimals.
func (m *Money) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		var f float64
		if ferr := unmarshal(&f); ferr != nil {
			return err
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
