package affordability

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// Evaluation is the evaluator's outcome: either a usable affordability value
// or an explicit rejection with its reason.
type Evaluation struct {
	Value        decimal.Decimal
	Rejected     bool
	RejectReason string
}

// Rejection reasons reported to the caller.
const (
	RejectReasonNonPositiveIncome = "processed_income_not_positive"
	RejectReasonBelowFloor        = "alternative_affordability_below_floor"
)

// Evaluator selects and validates the affordability value feeding the limit
// calculator.
type Evaluator struct {
	Features domain.FeatureProvider
}

// NewEvaluator creates a new Evaluator instance.
func NewEvaluator(features domain.FeatureProvider) *Evaluator {
	return &Evaluator{Features: features}
}

// Evaluate validates the latest affordability record.
// Logic:
//  1. A false processed-income gate rejects regardless of the value.
//  2. An alternative (override) assessment below the configured floor
//     rejects. The floor is one of two configured values, selected by the
//     use_secondary parameter; a missing floor configuration disables the
//     check.
//  3. Otherwise the raw value passes through.
func (e *Evaluator) Evaluate(ctx context.Context, history *domain.AffordabilityHistory, incomePositive bool) (Evaluation, error) {
	if !incomePositive {
		return Evaluation{Rejected: true, RejectReason: RejectReasonNonPositiveIncome}, nil
	}

	if history.IsAlternative {
		floor, err := e.rejectionFloor(ctx)
		if err != nil {
			return Evaluation{}, err
		}
		if floor != nil && history.Value.LessThan(*floor) {
			return Evaluation{Rejected: true, RejectReason: RejectReasonBelowFloor}, nil
		}
	}

	return Evaluation{Value: history.Value}, nil
}

// rejectionFloor returns the active floor for alternative assessments, or
// nil when the feature is absent, inactive or missing the selected floor.
func (e *Evaluator) rejectionFloor(ctx context.Context) (*decimal.Decimal, error) {
	snapshot, err := e.Features.Snapshot(ctx, domain.FeatureAffordabilityFloor)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if snapshot == nil || !snapshot.Active {
		return nil, nil
	}

	var params domain.RejectionFloorParams
	if err := snapshot.DecodeParams(&params); err != nil {
		return nil, nil // malformed configuration degrades to no floor
	}

	if params.UseSecondary {
		return params.SecondaryFloor, nil
	}
	return params.PrimaryFloor, nil
}
