package emi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks malformed numeric arguments (non-positive principal,
// negative rate, tenure below one month).
var ErrInvalidInput = errors.New("emi: invalid input")

// divPrecision is the number of decimal digits kept on intermediate
// divisions. Tenures up to 360 months need this much headroom in the
// power term before the final 2-place quantization.
const divPrecision = 28

var (
	one           = decimal.NewFromInt(1)
	monthsPerYear = decimal.NewFromInt(1200) // annual % → monthly fraction
)

// Compute returns the fixed monthly installment for a loan:
//
//	EMI = P × r × (1+r)^n / ((1+r)^n − 1)
//
// with r = annualRate/1200 and n = tenureMonths. A zero rate degrades to
// P/n. The result is quantized to 2 decimal places, rounding halves up.
// Pure: no side effects, same inputs always give the same output.
func Compute(principal, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if principal.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: principal must be greater than 0", ErrInvalidInput)
	}
	if annualRate.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidInput)
	}
	if tenureMonths < 1 {
		return decimal.Zero, fmt.Errorf("%w: tenure must be at least 1 month", ErrInvalidInput)
	}

	n := decimal.NewFromInt(int64(tenureMonths))

	if annualRate.IsZero() {
		return principal.DivRound(n, 2), nil
	}

	monthlyRate := annualRate.DivRound(monthsPerYear, divPrecision)
	// (1+r)^n is exact: integer exponent, decimal multiplication.
	power := one.Add(monthlyRate).Pow(n)
	numerator := principal.Mul(monthlyRate).Mul(power)
	denominator := power.Sub(one)

	return numerator.DivRound(denominator, divPrecision).Round(2), nil
}
