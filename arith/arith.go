// Package arith provides the exact decimal arithmetic the tabulator
// uses on every result path. It never touches a native float: all
// operations are backed by shopspring/decimal, which stores values as
// arbitrary-precision integers with a base-10 exponent.
package arith

import "github.com/shopspring/decimal"

// Rounding selects how Arith.Divide rounds when the quotient does not
// terminate within the configured scale.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// Arith is configured once per contest with the number of decimal
// places the contest's thresholds and transfer values are computed
// to, and whether non-integer thresholds are permitted at all (when
// they are not, every division is truncated to a whole number).
type Arith struct {
	decimalPlaces          int32
	useNonIntegerThreshold bool
}

// New builds an Arith for the given decimal_places (0-20) and the
// non_integer_thresholds_enabled flag.
func New(decimalPlaces int, useNonIntegerThreshold bool) Arith {
	if decimalPlaces < 0 || decimalPlaces > 20 {
		panic("arith: decimal_places must be within [0, 20]")
	}
	return Arith{decimalPlaces: int32(decimalPlaces), useNonIntegerThreshold: useNonIntegerThreshold}
}

// Scale returns the number of decimal places used for thresholds,
// i.e. decimalPlaces when non-integer thresholds are enabled, else 0.
func (a Arith) Scale() int32 {
	if a.useNonIntegerThreshold {
		return a.decimalPlaces
	}
	return 0
}

// Augend returns 10^(-scale), the smallest representable increment at
// the configured threshold scale. Used by the Droop quota (§4.6).
func (a Arith) Augend() decimal.Decimal {
	return decimal.New(1, -a.Scale())
}

func (a Arith) Add(x, y decimal.Decimal) decimal.Decimal { return x.Add(y) }
func (a Arith) Sub(x, y decimal.Decimal) decimal.Decimal { return x.Sub(y) }

// Mul multiplies without losing precision: shopspring/decimal's
// product keeps the full exponent of both operands, so no rounding
// step is needed here.
func (a Arith) Mul(x, y decimal.Decimal) decimal.Decimal { return x.Mul(y) }

// Compare returns -1, 0 or 1, mirroring decimal.Decimal.Cmp.
func (a Arith) Compare(x, y decimal.Decimal) int { return x.Cmp(y) }

// Signum returns -1, 0 or 1 for the sign of x.
func (a Arith) Signum(x decimal.Decimal) int { return x.Sign() }

// Divide computes x/y rounded to the configured threshold scale using
// the given rounding mode. Division by zero returns decimal.Zero: a
// zero-tally winner has no surplus to distribute and callers treat
// that as "nothing to transfer", not a fault.
func (a Arith) Divide(x, y decimal.Decimal, mode Rounding) decimal.Decimal {
	if y.IsZero() {
		return decimal.Zero
	}
	scale := a.Scale()
	switch mode {
	case RoundUp:
		return divRoundUp(x, y, scale)
	default:
		q, _ := x.QuoRem(y, scale)
		return q
	}
}

// divRoundUp rounds the quotient away from zero at the given scale,
// which decimal.Decimal has no single built-in for.
func divRoundUp(x, y decimal.Decimal, scale int32) decimal.Decimal {
	truncated, rem := x.QuoRem(y, scale)
	if rem.IsZero() {
		return truncated
	}
	step := decimal.New(1, -scale)
	if x.Sign()*y.Sign() < 0 {
		return truncated.Sub(step)
	}
	return truncated.Add(step)
}

// CeilAt rounds x up to the given scale.
func CeilAt(x decimal.Decimal, scale int32) decimal.Decimal {
	truncated := x.Truncate(scale)
	if truncated.Equal(x) {
		return truncated
	}
	step := decimal.New(1, -scale)
	return truncated.Add(step)
}

// FloorAt rounds x down to the given scale.
func FloorAt(x decimal.Decimal, scale int32) decimal.Decimal {
	return x.Truncate(scale)
}
