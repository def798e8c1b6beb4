package limitcalc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

func TestRoundDownLimit_SmallStep(t *testing.T) {
	// Values at or below 5,000,000 round down to the nearest 500,000
	assert.True(t, RoundDownLimit(decimal.NewFromInt(4_999_122)).Equal(decimal.NewFromInt(4_500_000)))
	assert.True(t, RoundDownLimit(decimal.NewFromInt(4_122_121)).Equal(decimal.NewFromInt(4_000_000)))
	assert.True(t, RoundDownLimit(decimal.NewFromInt(5_000_000)).Equal(decimal.NewFromInt(5_000_000)))
	assert.True(t, RoundDownLimit(decimal.NewFromInt(499_999)).Equal(decimal.Zero))
}

func TestRoundDownLimit_LargeStep(t *testing.T) {
	// Values above 5,000,000 round down to the nearest 1,000,000
	assert.True(t, RoundDownLimit(decimal.NewFromInt(9_944_172)).Equal(decimal.NewFromInt(9_000_000)))
	assert.True(t, RoundDownLimit(decimal.NewFromInt(5_000_001)).Equal(decimal.NewFromInt(5_000_000)))
	assert.True(t, RoundDownLimit(decimal.NewFromInt(21_100_000)).Equal(decimal.NewFromInt(21_000_000)))
}

func TestAnnuityPrincipal_ZeroRate(t *testing.T) {
	// Zero rate degenerates to payment × months
	principal := AnnuityPrincipal(decimal.NewFromInt(1_000_000), decimal.Zero, 6)
	assert.True(t, principal.Equal(decimal.NewFromInt(6_000_000)))
}

func TestAnnuityPrincipal_SingleMonth(t *testing.T) {
	// One installment at 5%: principal = payment / 1.05
	payment := decimal.NewFromInt(105_000)
	principal := AnnuityPrincipal(payment, decimal.RequireFromString("0.05"), 1)
	assert.True(t, principal.Sub(decimal.NewFromInt(100_000)).Abs().LessThan(decimal.NewFromInt(1)),
		"expected ~100,000, got %s", principal)
}

func TestAnnuityPrincipal_NonPositiveDuration(t *testing.T) {
	assert.True(t, AnnuityPrincipal(decimal.NewFromInt(1_000_000), decimal.RequireFromString("0.05"), 0).IsZero())
}

func TestCompute_FloorAppliedBelowBracketMinimum(t *testing.T) {
	// Bracket [500000, 500000] at 5% for 1 month, affordability 306,029,
	// factor 0.8: both rounded figures collapse to zero, so set_limit takes
	// the 300,000 floor and max_limit clips up to the bracket minimum.
	bracket := domain.MatrixBracket{
		Interest:      decimal.RequireFromString("0.05"),
		MinLoanAmount: decimal.NewFromInt(500_000),
		MaxLoanAmount: decimal.NewFromInt(500_000),
		MaxDuration:   1,
	}

	res := Compute(bracket, decimal.NewFromInt(306_029), decimal.RequireFromString("0.8"))

	assert.True(t, res.SimpleLimitRounded.IsZero())
	assert.True(t, res.ReducedLimitRounded.IsZero())
	assert.True(t, res.SetLimit.Equal(decimal.NewFromInt(300_000)), "set_limit should floor at 300,000, got %s", res.SetLimit)
	assert.True(t, res.MaxLimit.Equal(decimal.NewFromInt(500_000)))
}

func TestCompute_NormalRoundingPassesThrough(t *testing.T) {
	// Bracket [500000, 1000000] at 25% for 2 months gives an exact annuity
	// factor of 1.44. Affordability 1,000,660 × 0.9 rounds to 1,000,000,
	// which clears the bracket minimum and must pass through unmodified.
	bracket := domain.MatrixBracket{
		Interest:      decimal.RequireFromString("0.25"),
		MinLoanAmount: decimal.NewFromInt(500_000),
		MaxLoanAmount: decimal.NewFromInt(1_000_000),
		MaxDuration:   2,
	}

	res := Compute(bracket, decimal.NewFromInt(1_000_660), decimal.RequireFromString("0.9"))

	assert.True(t, res.SetLimit.Equal(decimal.NewFromInt(1_000_000)), "got %s", res.SetLimit)
	assert.True(t, res.MaxLimit.Equal(decimal.NewFromInt(1_000_000)))
}

func TestCompute_MaxLimitClippedToBracketMaximum(t *testing.T) {
	bracket := domain.MatrixBracket{
		Interest:      decimal.Zero,
		MinLoanAmount: decimal.NewFromInt(500_000),
		MaxLoanAmount: decimal.NewFromInt(10_000_000),
		MaxDuration:   24,
	}

	// 2,000,000 × 24 = 48,000,000 simple, far beyond the bracket max.
	res := Compute(bracket, decimal.NewFromInt(2_000_000), decimal.NewFromInt(1))

	assert.True(t, res.SimpleLimitRounded.Equal(decimal.NewFromInt(48_000_000)))
	assert.True(t, res.MaxLimit.Equal(decimal.NewFromInt(10_000_000)))
}

func TestCompute_ReducedAndSimpleRoundIndependently(t *testing.T) {
	bracket := domain.MatrixBracket{
		Interest:      decimal.Zero,
		MinLoanAmount: decimal.NewFromInt(500_000),
		MaxLoanAmount: decimal.NewFromInt(20_000_000),
		MaxDuration:   6,
	}

	// simple = 5,900,000 (> pivot, rounds to 5,000,000 at the 1M step)
	// reduced = 4,720,000 (≤ pivot, rounds to 4,500,000 at the 500K step)
	res := Compute(bracket, decimal.RequireFromString("983333.34"), decimal.RequireFromString("0.8"))

	assert.True(t, res.SimpleLimitRounded.Equal(decimal.NewFromInt(5_000_000)), "got %s", res.SimpleLimitRounded)
	assert.True(t, res.ReducedLimitRounded.Equal(decimal.NewFromInt(4_500_000)), "got %s", res.ReducedLimitRounded)
	assert.True(t, res.SetLimit.Equal(res.ReducedLimitRounded))
}
