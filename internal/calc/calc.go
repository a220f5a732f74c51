// Package calc derives performance figures from raw monetary and date inputs.
//
// Every function is pure: inputs are never mutated and no state is kept
// between calls. Ratios are rounded exactly once, here, so that manual entry,
// bulk import and edits all observe identical values.
package calc

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places every derived figure is rounded to
const Precision int32 = 1

// daysPerYear accounts for leap years when annualising
const daysPerYear = 365.25

// Round rounds v to Precision places, half away from zero.
// NaN and ±Inf collapse to 0 so they can never leak into an entity.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(Precision).InexactFloat64()
}

// ratio divides num by den, falling back to 0 for a non-positive denominator
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// DPI returns distributions to paid-in capital: distributed / called
func DPI(distributed, called float64) float64 {
	return Round(ratio(distributed, called))
}

// TVPI returns total value to paid-in capital: (nav + distributed) / called
func TVPI(nav, distributed, called float64) float64 {
	return Round(ratio(nav+distributed, called))
}

// MOIC returns the multiple on invested capital: value / invested.
// value is the exit value for realised positions and the current mark otherwise.
func MOIC(value, invested float64) float64 {
	return Round(ratio(value, invested))
}

// HoldingYears returns the elapsed time between start and end in years
func HoldingYears(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / daysPerYear
}

// IRR returns the annualised return, in percent, implied by growing invested
// into value between start and end.
//
// ok is false when the figure is undefined: no capital invested, missing
// dates, or a non-positive holding period. A position whose rounded MOIC
// is 0 is a total loss: -100 whatever the holding period.
func IRR(invested, value float64, start, end time.Time) (irr float64, ok bool) {
	if invested <= 0 || value < 0 || start.IsZero() || end.IsZero() {
		return 0, false
	}

	// MOIC와 IRR은 항상 같은 반올림 결과로 판단
	if MOIC(value, invested) == 0 {
		return -100, true
	}
	multiple := value / invested

	years := HoldingYears(start, end)
	if years <= 0 {
		return 0, false
	}

	irr = (math.Pow(multiple, 1/years) - 1) * 100
	if math.IsNaN(irr) || math.IsInf(irr, 0) {
		return 0, false
	}
	return Round(irr), true
}

// ElapsedDays returns the number of whole days from start to end.
// ok is false when either date is missing or end precedes start.
func ElapsedDays(start, end time.Time) (days int, ok bool) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0, false
	}
	return int(end.Sub(start).Hours() / 24), true
}
