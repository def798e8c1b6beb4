// Package memory contains in-memory provider implementations, seedable for
// local runs and integration tests.
package memory

import (
	"github.com/danaflex/limitengine-backend/internal/domain"
)

var (
	_ domain.FeatureProvider         = (*FeatureProvider)(nil)
	_ domain.EligibilityProvider     = (*EligibilityProvider)(nil)
	_ domain.BehavioralScoreProvider = (*ScoreProvider)(nil)
	_ domain.BankStatementProvider   = (*BankStatementProvider)(nil)
	_ domain.IncomeVerifier          = (*IncomeVerifier)(nil)
	_ domain.StatusNotifier          = (*LogNotifier)(nil)
)
