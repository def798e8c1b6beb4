package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Generation reasons, recorded on every CreditLimitGeneration row.
const (
	GenerationReasonInitial          = "initial_generation"
	GenerationReasonBehavioralScore  = "behavioral_score_recalculation"
	GenerationReasonIncomeAdjustment = "income_affordability_update"
)

// CreditLimitGeneration is an immutable audit record of one limit computation
// pass. Rows are never updated or deleted; the latest row per application is
// the reference point for no-op detection and pre/post diffing.
type CreditLimitGeneration struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	ApplicationID uuid.UUID
	MatrixID      *uuid.UUID // NULL for passes that never reached a matrix lookup
	MaxLimit      decimal.Decimal
	SetLimit      decimal.Decimal
	Trace         GenerationTrace
	Reason        string
	CreatedAt     time.Time
}

// TraceVersion is the current GenerationTrace schema version.
const TraceVersion = 1

// GenerationTrace is the structured computation trace stored with every
// generation. It records every intermediate figure so a downstream diff is
// reconstructable from the trace alone, without re-running the calculator.
type GenerationTrace struct {
	Version int `json:"version"`

	// Inputs.
	PGood            decimal.Decimal `json:"pgood"`
	Affordability    decimal.Decimal `json:"affordability"`
	AdjustmentFactor decimal.Decimal `json:"adjustment_factor"`
	MatrixParams     *MatrixParams   `json:"matrix_params,omitempty"`
	Bracket          *TraceBracket   `json:"bracket,omitempty"`

	// Pre-matrix figures. These advance on income-driven recalculation even
	// when the live limit does not.
	SimpleLimit         decimal.Decimal `json:"simple_limit"`
	ReducedLimit        decimal.Decimal `json:"reduced_limit"`
	SimpleLimitRounded  decimal.Decimal `json:"simple_limit_rounded"`
	ReducedLimitRounded decimal.Decimal `json:"reduced_limit_rounded"`
	PreMatrixMaxLimit   decimal.Decimal `json:"pre_matrix_max_limit"`
	PreMatrixSetLimit   decimal.Decimal `json:"pre_matrix_set_limit"`

	// Post-matrix, pre-overlay figures.
	PreOverlayMaxLimit decimal.Decimal `json:"pre_overlay_max_limit"`
	PreOverlaySetLimit decimal.Decimal `json:"pre_overlay_set_limit"`

	// Overlay adjustments in application order.
	Overlays []OverlayAdjustment `json:"overlays,omitempty"`

	// Final figures written to the generation row.
	MaxLimit decimal.Decimal `json:"max_limit"`
	SetLimit decimal.Decimal `json:"set_limit"`
}

// TraceBracket pins the matrix inputs the calculator ran with, so later
// pre-matrix recomputation can reuse the same rate and duration.
type TraceBracket struct {
	Interest      decimal.Decimal `json:"interest"`
	MinLoanAmount decimal.Decimal `json:"min_loan_amount"`
	MaxLoanAmount decimal.Decimal `json:"max_loan_amount"`
	MaxDuration   int             `json:"max_duration"`
}

// OverlayAdjustment records one overlay's outcome inside a trace.
type OverlayAdjustment struct {
	Name     string          `json:"name"`
	Applied  bool            `json:"applied"`
	MaxLimit decimal.Decimal `json:"max_limit"`
	SetLimit decimal.Decimal `json:"set_limit"`
}
