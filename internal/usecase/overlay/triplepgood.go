package overlay

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitcalc"
)

// Triple-pgood tier names, keys into the limit_gain parameter map.
const (
	TierTopSalariedPremium = "top_salaried_premium"
	TierTopSalaried        = "top_salaried"
	TierTop                = "top"
	TierHigh               = "high"
	TierMid                = "mid"
)

// Tier boundaries on pgood.
var (
	tierTopThreshold  = decimal.RequireFromString("0.95")
	tierHighThreshold = decimal.RequireFromString("0.90")
	tierMidThreshold  = decimal.RequireFromString("0.80")
)

// applyTriplePGood runs the triple-pgood overlay: a not-okay record, missing
// parameter or missing limit_gain map all pass through.
func (c *Chain) applyTriplePGood(ctx context.Context, app *domain.Application, prop *domain.AccountProperty, limits Limits) (Limits, bool, error) {
	record, err := c.eligibilityRecord(ctx, app.CustomerID, domain.CheckTriplePGood)
	if err != nil {
		return Limits{}, false, err
	}
	if record == nil || !record.IsOkay {
		return limits, false, nil
	}

	var params domain.TriplePGoodParams
	if err := record.DecodeParameter(&params); err != nil {
		return limits, false, nil
	}
	if params.LimitGain == nil {
		return limits, false, nil
	}

	next, applied := triplePGoodGain(prop, params, limits)
	return next, applied, nil
}

// triplePGoodGain is the pure core of the overlay. A matched tier adds its
// configured gain to both fields and re-rounds the result; a customer
// outside every tier gets the flat default addend without rounding.
func triplePGoodGain(prop *domain.AccountProperty, params domain.TriplePGoodParams, limits Limits) (Limits, bool) {
	tier := classifyTier(prop.PGood, prop.IsSalaried, prop.IsPremiumArea)

	if tier == "" {
		if params.DefaultGain == nil {
			return limits, false
		}
		limits.MaxLimit = limits.MaxLimit.Add(*params.DefaultGain)
		limits.SetLimit = limits.SetLimit.Add(*params.DefaultGain)
		return limits, true
	}

	gain, ok := params.LimitGain[tier]
	if !ok {
		return limits, false
	}
	limits.MaxLimit = limitcalc.RoundDownLimit(limits.MaxLimit.Add(gain))
	limits.SetLimit = limitcalc.RoundDownLimit(limits.SetLimit.Add(gain))
	return limits, true
}

// classifyTier orders customers into gain tiers by pgood thresholds crossed
// with the salaried and premium-area flags. First match wins; customers
// below every threshold fall outside the tiers.
func classifyTier(pgood decimal.Decimal, salaried, premiumArea bool) string {
	switch {
	case pgood.GreaterThanOrEqual(tierTopThreshold) && salaried && premiumArea:
		return TierTopSalariedPremium
	case pgood.GreaterThanOrEqual(tierTopThreshold) && salaried:
		return TierTopSalaried
	case pgood.GreaterThanOrEqual(tierTopThreshold):
		return TierTop
	case pgood.GreaterThanOrEqual(tierHighThreshold):
		return TierHigh
	case pgood.GreaterThanOrEqual(tierMidThreshold):
		return TierMid
	default:
		return ""
	}
}
