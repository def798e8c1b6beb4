package overlay

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// applyJobCheckCap runs the non-FDC-job-check-fail overlay: when the
// eligibility record exists with an active cap_limit parameter, max_limit
// and set_limit are each capped at cap_limit independently. The overlay
// never raises either field.
func (c *Chain) applyJobCheckCap(ctx context.Context, app *domain.Application, _ *domain.AccountProperty, limits Limits) (Limits, bool, error) {
	record, err := c.eligibilityRecord(ctx, app.CustomerID, domain.CheckNonFDCJobFail)
	if err != nil {
		return Limits{}, false, err
	}
	if record == nil || !record.IsOkay {
		return limits, false, nil
	}

	var params domain.CapLimitParams
	if err := record.DecodeParameter(&params); err != nil {
		return limits, false, nil
	}
	if params.CapLimit == nil {
		return limits, false, nil
	}

	next, applied := capAtLimit(*params.CapLimit, limits)
	return next, applied, nil
}

// capAtLimit clips each field at capLimit independently; fields already at
// or below the cap are untouched.
func capAtLimit(capLimit decimal.Decimal, limits Limits) (Limits, bool) {
	applied := false
	if limits.MaxLimit.GreaterThan(capLimit) {
		limits.MaxLimit = capLimit
		applied = true
	}
	if limits.SetLimit.GreaterThan(capLimit) {
		limits.SetLimit = capLimit
		applied = true
	}
	return limits, applied
}
