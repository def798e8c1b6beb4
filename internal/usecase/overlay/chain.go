// Package overlay implements the experiment overlay chain: an ordered set of
// independently-toggled adjusters that raise or cap a computed credit limit.
// Every overlay is pure once its inputs are fetched; a missing eligibility
// record, feature row or parameter always degrades to passthrough.
package overlay

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// Overlay names as recorded in generation traces.
const (
	OverlayBankStatement = "leverage_bank_statement"
	OverlayTriplePGood   = "triple_pgood"
	OverlayJobCheckCap   = "non_fdc_job_check_fail"
)

// Limits is the (max_limit, set_limit) pair flowing through the chain.
type Limits struct {
	MaxLimit decimal.Decimal
	SetLimit decimal.Decimal
}

// Chain applies the experiment overlays in their fixed order:
// leverage-bank-statement, triple-pgood, non-FDC-job-check-fail cap.
type Chain struct {
	Eligibility    domain.EligibilityProvider
	Features       domain.FeatureProvider
	BankStatements domain.BankStatementProvider
}

// NewChain creates a new Chain instance.
func NewChain(
	eligibility domain.EligibilityProvider,
	features domain.FeatureProvider,
	bankStatements domain.BankStatementProvider,
) *Chain {
	return &Chain{
		Eligibility:    eligibility,
		Features:       features,
		BankStatements: bankStatements,
	}
}

// Apply runs the overlay chain over the computed limits and returns the
// adjusted limits plus one trace entry per overlay, in application order.
func (c *Chain) Apply(ctx context.Context, app *domain.Application, prop *domain.AccountProperty, limits Limits) (Limits, []domain.OverlayAdjustment, error) {
	adjustments := make([]domain.OverlayAdjustment, 0, 3)

	steps := []struct {
		name string
		run  func(context.Context, *domain.Application, *domain.AccountProperty, Limits) (Limits, bool, error)
	}{
		{OverlayBankStatement, c.applyBankStatement},
		{OverlayTriplePGood, c.applyTriplePGood},
		{OverlayJobCheckCap, c.applyJobCheckCap},
	}

	for _, step := range steps {
		next, applied, err := step.run(ctx, app, prop, limits)
		if err != nil {
			return Limits{}, nil, err
		}
		limits = next
		adjustments = append(adjustments, domain.OverlayAdjustment{
			Name:     step.name,
			Applied:  applied,
			MaxLimit: limits.MaxLimit,
			SetLimit: limits.SetLimit,
		})
	}

	return limits, adjustments, nil
}

// eligibilityRecord fetches a check record, mapping absence to nil.
func (c *Chain) eligibilityRecord(ctx context.Context, customerID uuid.UUID, name string) (*domain.EligibilityCheck, error) {
	record, err := c.Eligibility.Check(ctx, customerID, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// featureSnapshot fetches a feature row, mapping absence to nil.
func (c *Chain) featureSnapshot(ctx context.Context, name string) (*domain.FeatureSnapshot, error) {
	snapshot, err := c.Features.Snapshot(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot, nil
}
