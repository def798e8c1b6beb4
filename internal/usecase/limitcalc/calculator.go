package limitcalc

import (
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// Rounding steps for limit figures. Values at or below the pivot round down
// to the small step, values above round down to the large step.
var (
	roundingPivot = decimal.NewFromInt(5_000_000)
	smallStep     = decimal.NewFromInt(500_000)
	largeStep     = decimal.NewFromInt(1_000_000)
)

// SetLimitFloor is the minimum set_limit granted when the computed value
// rounds below the matrix's own minimum bracket.
var SetLimitFloor = decimal.NewFromInt(300_000)

// Result holds every figure produced by one calculator pass.
type Result struct {
	SimpleLimit         decimal.Decimal
	ReducedLimit        decimal.Decimal
	SimpleLimitRounded  decimal.Decimal
	ReducedLimitRounded decimal.Decimal
	MaxLimit            decimal.Decimal
	SetLimit            decimal.Decimal
	AdjustmentFactor    decimal.Decimal
}

// RoundDownLimit rounds a limit figure down to the nearest step:
// 500,000 for values at or below 5,000,000, otherwise 1,000,000.
func RoundDownLimit(v decimal.Decimal) decimal.Decimal {
	step := smallStep
	if v.GreaterThan(roundingPivot) {
		step = largeStep
	}
	return v.Div(step).Floor().Mul(step)
}

// AnnuityPrincipal computes the principal of an annuity at the given monthly
// rate and duration whose periodic payment equals payment:
//
//	principal = payment × (1 − (1+i)^−n) / i
//
// A zero rate degenerates to payment × n.
func AnnuityPrincipal(payment, monthlyRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(months))
	if monthlyRate.IsZero() {
		return payment.Mul(n)
	}
	one := decimal.NewFromInt(1)
	compound := one.Add(monthlyRate).Pow(n)
	annuityFactor := one.Sub(one.Div(compound)).Div(monthlyRate)
	return payment.Mul(annuityFactor)
}

// Compute derives the full set of limit figures from a matrix bracket, an
// affordability value and an adjustment factor in (0, 1].
// Logic:
//  1. simple_limit = annuity principal at the bracket's rate and duration
//     with affordability as the periodic payment
//  2. reduced_limit = simple_limit × adjustment_factor
//  3. both figures round down independently per RoundDownLimit
//  4. set_limit = reduced_limit_rounded, floored at SetLimitFloor only when
//     the rounded value falls below the bracket's minimum amount
//  5. max_limit = simple_limit_rounded clipped to the bracket's amount bounds
//
// The function is pure and safe for concurrent invocation.
func Compute(bracket domain.MatrixBracket, affordability, adjustmentFactor decimal.Decimal) Result {
	simple := AnnuityPrincipal(affordability, bracket.Interest, bracket.MaxDuration)
	reduced := simple.Mul(adjustmentFactor)

	simpleRounded := RoundDownLimit(simple)
	reducedRounded := RoundDownLimit(reduced)

	setLimit := reducedRounded
	if reducedRounded.LessThan(bracket.MinLoanAmount) {
		setLimit = decimal.Max(SetLimitFloor, reducedRounded)
	}

	maxLimit := simpleRounded
	if maxLimit.LessThan(bracket.MinLoanAmount) {
		maxLimit = bracket.MinLoanAmount
	}
	if maxLimit.GreaterThan(bracket.MaxLoanAmount) {
		maxLimit = bracket.MaxLoanAmount
	}

	return Result{
		SimpleLimit:         simple,
		ReducedLimit:        reduced,
		SimpleLimitRounded:  simpleRounded,
		ReducedLimitRounded: reducedRounded,
		MaxLimit:            maxLimit,
		SetLimit:            setLimit,
		AdjustmentFactor:    adjustmentFactor,
	}
}
