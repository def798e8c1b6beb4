package overlay

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitcalc"
)

// bankStatementMonths is the trailing window the overlay aggregates.
const bankStatementMonths = 3

// applyBankStatement runs the leverage-bank-statement overlay.
// Active only when the customer carries the submitted-bank-statement tag and
// the experiment supplies constant, threshold and cap. Anything missing
// passes the limits through untouched.
func (c *Chain) applyBankStatement(ctx context.Context, app *domain.Application, _ *domain.AccountProperty, limits Limits) (Limits, bool, error) {
	record, err := c.eligibilityRecord(ctx, app.CustomerID, domain.CheckSubmittedBankStatement)
	if err != nil {
		return Limits{}, false, err
	}
	if record == nil || !record.IsOkay {
		return limits, false, nil
	}

	snapshot, err := c.featureSnapshot(ctx, domain.FeatureBankStatementExperiment)
	if err != nil {
		return Limits{}, false, err
	}
	if snapshot == nil || !snapshot.Active {
		return limits, false, nil
	}

	var params domain.BankStatementExperimentParams
	if err := snapshot.DecodeParams(&params); err != nil {
		return limits, false, nil
	}
	if params.Constant == nil || params.Threshold == nil || params.Cap == nil {
		return limits, false, nil
	}

	summary, err := c.BankStatements.MonthlyBalances(ctx, app.ID, bankStatementMonths)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return limits, false, nil
		}
		return Limits{}, false, err
	}

	next, applied := leverageBankStatement(*summary, params, limits)
	return next, applied, nil
}

// leverageBankStatement is the pure core of the overlay.
// Logic:
//  1. Two candidates: avg end-of-month balance and avg end-of-day balance,
//     each × constant and rounded, surviving only if the balance exceeds
//     the threshold.
//  2. The larger surviving candidate replaces set_limit, never lowering it.
//  3. max_limit is raised to the experiment's cap when a candidate survives.
func leverageBankStatement(summary domain.BankStatementSummary, params domain.BankStatementExperimentParams, limits Limits) (Limits, bool) {
	candidates := make([]decimal.Decimal, 0, 2)
	for _, balance := range []decimal.Decimal{summary.AvgEndOfMonthBalance, summary.AvgEndOfDayBalance} {
		if balance.GreaterThan(*params.Threshold) {
			candidates = append(candidates, limitcalc.RoundDownLimit(balance.Mul(*params.Constant)))
		}
	}
	if len(candidates) == 0 {
		return limits, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.GreaterThan(best) {
			best = c
		}
	}

	if best.GreaterThan(limits.SetLimit) {
		limits.SetLimit = best
	}
	if params.Cap.GreaterThan(limits.MaxLimit) {
		limits.MaxLimit = *params.Cap
	}
	return limits, true
}
