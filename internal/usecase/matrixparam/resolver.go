package matrixparam

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// highConfidencePGood substitutes the raw pgood when a bypass condition
// holds: the customer carries an eligibility tag whose enabling feature
// toggle is active.
var highConfidencePGood = decimal.RequireFromString("0.93")

// Resolver builds matrix-selection parameters from application and account
// signals.
type Resolver struct {
	LoanHistoryRepo domain.LoanHistoryRepository
	Eligibility     domain.EligibilityProvider
	Features        domain.FeatureProvider
}

// NewResolver creates a new Resolver instance.
func NewResolver(
	loanHistoryRepo domain.LoanHistoryRepository,
	eligibility domain.EligibilityProvider,
	features domain.FeatureProvider,
) *Resolver {
	return &Resolver{
		LoanHistoryRepo: loanHistoryRepo,
		Eligibility:     eligibility,
		Features:        features,
	}
}

// Resolve builds the matrix-selection parameters for an application.
// Logic:
//  1. MatrixType is PROVEN for proven-repeat customers, STANDARD otherwise.
//     A customer with a paid-off loan on the migrated legacy product line is
//     always STANDARD regardless of proven-repeat status.
//  2. The effective pgood defaults to the account property's pgood and is
//     substituted with the high-confidence constant when either bypass
//     condition holds (good alternative-data tag, or submitted bank
//     statement tag, each with its toggle active).
//  3. Both threshold parameters carry the effective pgood.
func (r *Resolver) Resolve(ctx context.Context, app *domain.Application, prop *domain.AccountProperty) (domain.MatrixParams, error) {
	pgood, err := r.effectivePGood(ctx, prop)
	if err != nil {
		return domain.MatrixParams{}, err
	}
	return r.resolveWithPGood(ctx, app, prop, pgood)
}

// ResolveForScore builds matrix-selection parameters using an explicit
// pgood, bypassing the account property's value. Behavioral-score
// recalculation uses the refreshed score as the selection signal.
func (r *Resolver) ResolveForScore(ctx context.Context, app *domain.Application, prop *domain.AccountProperty, pgood decimal.Decimal) (domain.MatrixParams, error) {
	return r.resolveWithPGood(ctx, app, prop, pgood)
}

func (r *Resolver) resolveWithPGood(ctx context.Context, app *domain.Application, prop *domain.AccountProperty, pgood decimal.Decimal) (domain.MatrixParams, error) {
	matrixType := domain.MatrixTypeStandard
	if prop.IsProvenRepeat {
		matrixType = domain.MatrixTypeProven
	}

	// A paid-off loan on the legacy line forces STANDARD even for proven
	// customers: their repayment history predates the migrated product.
	if matrixType == domain.MatrixTypeProven {
		paidOff, err := r.LoanHistoryRepo.HasPaidOffLoanOnLine(ctx, app.CustomerID, domain.ProductLineLegacy)
		if err != nil {
			return domain.MatrixParams{}, err
		}
		if paidOff {
			matrixType = domain.MatrixTypeStandard
		}
	}

	return domain.MatrixParams{
		MinThresholdLTE: pgood,
		MaxThresholdGTE: pgood,
		MatrixType:      matrixType,
		IsSalaried:      prop.IsSalaried,
		IsPremiumArea:   prop.IsPremiumArea,
	}, nil
}

// effectivePGood returns the raw property pgood, or the high-confidence
// constant when a bypass condition holds. Missing tags, missing features or
// disabled toggles all fall back to the raw value.
func (r *Resolver) effectivePGood(ctx context.Context, prop *domain.AccountProperty) (decimal.Decimal, error) {
	bypasses := []struct {
		check   string
		feature string
	}{
		{domain.CheckGoodAlternativeData, domain.FeatureAlternativeDataBypass},
		{domain.CheckSubmittedBankStatement, domain.FeatureBankStatementBypass},
	}

	for _, b := range bypasses {
		ok, err := r.bypassHolds(ctx, prop.CustomerID, b.check, b.feature)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return highConfidencePGood, nil
		}
	}
	return prop.PGood, nil
}

func (r *Resolver) bypassHolds(ctx context.Context, customerID uuid.UUID, check, feature string) (bool, error) {
	record, err := r.Eligibility.Check(ctx, customerID, check)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if record == nil || !record.IsOkay {
		return false, nil
	}

	snapshot, err := r.Features.Snapshot(ctx, feature)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return snapshot != nil && snapshot.Active, nil
}
