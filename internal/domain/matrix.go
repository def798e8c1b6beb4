package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatrixType selects which credit matrix family a lookup targets.
type MatrixType string

const (
	MatrixTypeStandard MatrixType = "STANDARD"
	MatrixTypeProven   MatrixType = "PROVEN"
)

// MatrixBracket is a read-only credit matrix row: the rate, amount bounds and
// duration used to size a limit, selected by pgood threshold and categorical
// matching.
type MatrixBracket struct {
	ID            uuid.UUID
	MatrixType    MatrixType
	IsSalaried    bool
	IsPremiumArea bool
	MinThreshold  decimal.Decimal // lower pgood bound (inclusive)
	MaxThreshold  decimal.Decimal // upper pgood bound (inclusive)
	Interest      decimal.Decimal // monthly rate, e.g. 0.05
	MinLoanAmount decimal.Decimal
	MaxLoanAmount decimal.Decimal
	MaxDuration   int // months
}

// Matches reports whether the bracket row covers the given selection
// parameters.
func (b *MatrixBracket) Matches(p MatrixParams) bool {
	return b.MatrixType == p.MatrixType &&
		b.IsSalaried == p.IsSalaried &&
		b.IsPremiumArea == p.IsPremiumArea &&
		b.MinThreshold.LessThanOrEqual(p.MinThresholdLTE) &&
		b.MaxThreshold.GreaterThanOrEqual(p.MaxThresholdGTE)
}

// MatrixParams is the matrix-selection key built by the parameter resolver.
// A bracket matches when its min threshold <= MinThresholdLTE and its max
// threshold >= MaxThresholdGTE (both carry the effective pgood).
type MatrixParams struct {
	MinThresholdLTE decimal.Decimal
	MaxThresholdGTE decimal.Decimal
	MatrixType      MatrixType
	IsSalaried      bool
	IsPremiumArea   bool
}
