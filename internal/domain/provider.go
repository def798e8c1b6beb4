package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Feature names served by the FeatureProvider.
const (
	// FeatureAlternativeDataBypass enables the pgood bypass for customers
	// tagged with a good alternative-data assessment.
	FeatureAlternativeDataBypass = "alternative_data_pgood_bypass"
	// FeatureBankStatementBypass enables the pgood bypass for customers who
	// submitted a bank statement.
	FeatureBankStatementBypass = "bank_statement_pgood_bypass"
	// FeatureBankStatementExperiment configures the leverage-bank-statement
	// overlay (constant, threshold, cap).
	FeatureBankStatementExperiment = "leverage_bank_statement"
	// FeatureAffordabilityFloor configures the rejection floors applied to
	// alternative affordability assessments.
	FeatureAffordabilityFloor = "affordability_rejection_floor"
	// FeatureBehavioralRecalc gates behavioral-score recalculation.
	FeatureBehavioralRecalc = "behavioral_score_recalculation"
	// FeatureLimitAdjustment supplies the calculator's adjustment factor.
	FeatureLimitAdjustment = "limit_adjustment_factor"
)

// Eligibility check names served by the EligibilityProvider.
const (
	CheckGoodAlternativeData    = "good_alternative_data"
	CheckSubmittedBankStatement = "submitted_bank_statement"
	CheckTriplePGood            = "triple_pgood"
	CheckNonFDCJobFail          = "non_fdc_job_check_fail"
)

// FeatureSnapshot is a typed, per-call view of one feature's configuration.
// Snapshots are immutable once returned; a nil snapshot means the feature is
// not configured at all, which callers must distinguish from Active == false.
type FeatureSnapshot struct {
	Name       string
	Active     bool
	Parameters json.RawMessage
}

// DecodeParams unmarshals the snapshot's parameters into the per-feature
// schema type. Absent parameters leave the target untouched.
func (s *FeatureSnapshot) DecodeParams(target any) error {
	if len(s.Parameters) == 0 {
		return nil
	}
	return json.Unmarshal(s.Parameters, target)
}

// BankStatementExperimentParams is the schema for
// FeatureBankStatementExperiment. All fields are optional; an overlay with
// any missing field passes through.
type BankStatementExperimentParams struct {
	Constant  *decimal.Decimal `json:"constant,omitempty"`
	Threshold *decimal.Decimal `json:"threshold,omitempty"`
	Cap       *decimal.Decimal `json:"cap,omitempty"`
}

// RejectionFloorParams is the schema for FeatureAffordabilityFloor. The
// UseSecondary parameter selects which of the two floors applies.
type RejectionFloorParams struct {
	PrimaryFloor   *decimal.Decimal `json:"primary_floor,omitempty"`
	SecondaryFloor *decimal.Decimal `json:"secondary_floor,omitempty"`
	UseSecondary   bool             `json:"use_secondary"`
}

// BehavioralRecalcParams is the schema for FeatureBehavioralRecalc.
type BehavioralRecalcParams struct {
	RecalcActive    bool `json:"recalc_active"`
	ScoreWindowDays int  `json:"score_window_days"`
}

// LimitAdjustmentParams is the schema for FeatureLimitAdjustment.
type LimitAdjustmentParams struct {
	AdjustmentFactor *decimal.Decimal `json:"adjustment_factor,omitempty"`
}

// TriplePGoodParams is the parameter schema carried on the triple_pgood
// eligibility record. LimitGain maps tier name to the gain added on a tier
// match; DefaultGain is the flat addend for customers outside every tier.
type TriplePGoodParams struct {
	LimitGain   map[string]decimal.Decimal `json:"limit_gain,omitempty"`
	DefaultGain *decimal.Decimal           `json:"default_gain,omitempty"`
}

// CapLimitParams is the parameter schema carried on the
// non_fdc_job_check_fail eligibility record.
type CapLimitParams struct {
	CapLimit *decimal.Decimal `json:"cap_limit,omitempty"`
}

// FeatureProvider serves read-only feature configuration. Each call returns
// a fresh snapshot so overlay behavior stays deterministic within one
// computation pass.
type FeatureProvider interface {
	// Snapshot retrieves the configuration for a named feature.
	// Returns ErrNotFound when the feature is not configured.
	Snapshot(ctx context.Context, name string) (*FeatureSnapshot, error)
}

// EligibilityCheck is one eligibility-provider record.
type EligibilityCheck struct {
	Name      string
	IsOkay    bool
	Parameter json.RawMessage
}

// DecodeParameter unmarshals the check's parameter payload into the
// per-check schema type. Absent parameter leaves the target untouched.
func (c *EligibilityCheck) DecodeParameter(target any) error {
	if len(c.Parameter) == 0 {
		return nil
	}
	return json.Unmarshal(c.Parameter, target)
}

// EligibilityProvider serves per-customer eligibility check records.
type EligibilityProvider interface {
	// Check retrieves the named eligibility record for a customer.
	// Returns ErrNotFound when no record exists.
	Check(ctx context.Context, customerID uuid.UUID, name string) (*EligibilityCheck, error)
}

// BehavioralScore is a periodically refreshed repayment score.
type BehavioralScore struct {
	CustomerID    uuid.UUID
	Score         decimal.Decimal
	PartitionDate time.Time
}

// BehavioralScoreProvider serves the latest behavioral score per customer.
type BehavioralScoreProvider interface {
	// LatestScore retrieves the newest score for a customer.
	// Returns ErrNotFound when none exists.
	LatestScore(ctx context.Context, customerID uuid.UUID) (*BehavioralScore, error)
}

// BankStatementSummary aggregates the last months of bank-statement balances
// for the leverage-bank-statement overlay.
type BankStatementSummary struct {
	AvgEndOfMonthBalance decimal.Decimal
	AvgEndOfDayBalance   decimal.Decimal
}

// BankStatementProvider serves aggregated bank-statement balances.
type BankStatementProvider interface {
	// MonthlyBalances aggregates balances over the trailing number of
	// months. Returns ErrNotFound when the application has no statement.
	MonthlyBalances(ctx context.Context, applicationID uuid.UUID, months int) (*BankStatementSummary, error)
}

// IncomeVerifier supplies the external processed-income gate consulted
// before limit generation.
type IncomeVerifier interface {
	// ProcessedIncomePositive reports whether the application's processed
	// income is positive.
	ProcessedIncomePositive(ctx context.Context, applicationID uuid.UUID) (bool, error)
}

// StatusNotifier is invoked when a limit computation rejects an application.
type StatusNotifier interface {
	NotifyRejected(ctx context.Context, applicationID uuid.UUID, reason string) error
}
