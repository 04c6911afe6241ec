package engine

import "github.com/shopspring/decimal"

// Statutory import fee parameters, 19 CFR 24.23 and 24.24.
var (
	mpfRate = decimal.NewFromFloat(0.003464)
	mpfMin  = decimal.NewFromFloat(27.75)
	mpfMax  = decimal.NewFromFloat(538.40)
	hmfRate = decimal.NewFromFloat(0.00125)
)

// CalculateMPF returns the merchandise processing fee for a declared value:
// 0.3464% clamped to the statutory minimum and maximum.
func CalculateMPF(value decimal.Decimal) decimal.Decimal {
	fee := value.Mul(mpfRate)
	if fee.LessThan(mpfMin) {
		return mpfMin
	}
	if fee.GreaterThan(mpfMax) {
		return mpfMax
	}
	return fee
}

// CalculateHMF returns the harbor maintenance fee: a flat 0.125% of declared
// value with no clamp.
func CalculateHMF(value decimal.Decimal) decimal.Decimal {
	return value.Mul(hmfRate)
}
