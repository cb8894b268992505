package money

import (
	"math"
	"math/bits"
	"strings"
)

// RateScale is the number of rate units per major currency unit.
const RateScale = 10000

const unitsPerCent = RateScale / 100

// maxUnits keeps half-up rounding of a product from overflowing.
const maxUnits = math.MaxInt64 - unitsPerCent/2

// Rate is a per-day price with four fractional digits. Totals derived from a
// rate are rounded to cents exactly once, half-up.
type Rate struct {
	Units    int64
	Currency string
}

// RateFromDecimal converts a decimal amount in major units (e.g. 499.99).
func RateFromDecimal(value float64, currency string) (Rate, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Rate{}, ErrInvalidAmount
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Rate{}, ErrInvalidCurrency
	}
	scaled := math.Round(value * RateScale)
	if math.Abs(scaled) > maxUnits {
		return Rate{}, ErrOverflow
	}
	return Rate{Units: int64(scaled), Currency: strings.ToUpper(currency)}, nil
}

// MustRate panics on invalid input; useful in tests and fixtures.
func MustRate(value float64, currency string) Rate {
	r, err := RateFromDecimal(value, currency)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) IsPositive() bool {
	return r.Units > 0
}

// Decimal returns the rate in major units, for presentation only.
func (r Rate) Decimal() float64 {
	return float64(r.Units) / RateScale
}

// Times multiplies the rate by n and rounds the product to cents, half-up.
// A product that does not fit in int64 fails with ErrOverflow.
func (r Rate) Times(n int64) (Money, error) {
	hi, lo := bits.Mul64(absUnits(r.Units), absUnits(n))
	if hi != 0 || lo > maxUnits {
		return Money{}, ErrOverflow
	}
	units := int64(lo)
	if (r.Units < 0) != (n < 0) {
		units = -units
	}
	return Money{Amount: roundHalfUp(units, unitsPerCent), Currency: r.Currency}, nil
}

func absUnits(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func roundHalfUp(value, divisor int64) int64 {
	if value >= 0 {
		return (value + divisor/2) / divisor
	}
	return -((-value + divisor/2) / divisor)
}
