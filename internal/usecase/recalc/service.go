package recalc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
	"github.com/danaflex/limitengine-backend/internal/usecase/affordability"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitcalc"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitgen"
	"github.com/danaflex/limitengine-backend/internal/usecase/matrixparam"
	"github.com/danaflex/limitengine-backend/internal/usecase/overlay"
	"github.com/danaflex/limitengine-backend/pkg/metrics"
)

// Result reports a behavioral-score recalculation that ran. Old and New are
// equal when the pass produced an identical set_limit. A nil *Result from
// the service means the preconditions failed and nothing ran.
type Result struct {
	OldSetLimit decimal.Decimal
	NewSetLimit decimal.Decimal
}

// Changed reports whether the pass moved the live set_limit.
func (r *Result) Changed() bool {
	return !r.OldSetLimit.Equal(r.NewSetLimit)
}

// Service reruns the limit calculator against fresh inputs and reconciles
// the live limit state.
type Service struct {
	Resolver  *matrixparam.Resolver
	Evaluator *affordability.Evaluator

	AccountRepo       domain.AccountRepository
	GenerationRepo    domain.GenerationRepository
	MatrixRepo        domain.MatrixRepository
	AffordabilityRepo domain.AffordabilityRepository
	PropertyRepo      domain.AccountPropertyRepository

	Features domain.FeatureProvider
	Scores   domain.BehavioralScoreProvider

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// NewService creates a new recalculation Service instance.
func NewService(
	resolver *matrixparam.Resolver,
	evaluator *affordability.Evaluator,
	accountRepo domain.AccountRepository,
	generationRepo domain.GenerationRepository,
	matrixRepo domain.MatrixRepository,
	affordabilityRepo domain.AffordabilityRepository,
	propertyRepo domain.AccountPropertyRepository,
	features domain.FeatureProvider,
	scores domain.BehavioralScoreProvider,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Resolver:          resolver,
		Evaluator:         evaluator,
		AccountRepo:       accountRepo,
		GenerationRepo:    generationRepo,
		MatrixRepo:        matrixRepo,
		AffordabilityRepo: affordabilityRepo,
		PropertyRepo:      propertyRepo,
		Features:          features,
		Scores:            scores,
		Metrics:           collector,
		Logger:            logger,
	}
}

// RecalculateWithBehavioralScore reruns limit generation against the
// customer's refreshed behavioral score.
//
// Preconditions, any of which failing returns (nil, nil) — "did not run",
// distinct from "ran, unchanged": feature active with its recalc sub-flag,
// account not entry-level, no partner on the application, used_limit > 0,
// and a score within the configured window.
//
// On success the matrix is re-resolved with the score as the selection
// signal; a new generation is written and the live limit mutated only when
// the recomputed set_limit differs from the current one.
func (s *Service) RecalculateWithBehavioralScore(ctx context.Context, app *domain.Application) (*Result, error) {
	params, ok, err := s.recalcParams(ctx)
	if err != nil || !ok {
		return s.skip(err)
	}

	prop, err := s.PropertyRepo.GetByCustomerID(ctx, app.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.skip(nil)
		}
		return nil, err
	}
	if prop.IsEntryLevel || app.HasPartner() {
		return s.skip(nil)
	}

	limit, err := s.AccountRepo.GetLimit(ctx, app.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.skip(nil)
		}
		return nil, err
	}
	if !limit.UsedLimit.IsPositive() {
		return s.skip(nil)
	}

	score, err := s.recentScore(ctx, app.CustomerID, params.ScoreWindowDays)
	if err != nil {
		return nil, err
	}
	if score == nil {
		return s.skip(nil)
	}

	matrixParams, err := s.Resolver.ResolveForScore(ctx, app, prop, score.Score)
	if err != nil {
		return nil, err
	}
	bracket, err := s.MatrixRepo.FindBracket(ctx, matrixParams)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.skip(nil)
		}
		return nil, err
	}

	history, err := s.AffordabilityRepo.LatestByApplication(ctx, app.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.skip(nil)
		}
		return nil, err
	}
	eval, err := s.Evaluator.Evaluate(ctx, history, true)
	if err != nil {
		return nil, err
	}
	if eval.Rejected {
		return s.skip(nil)
	}

	factor, err := limitgen.AdjustmentFactor(ctx, s.Features)
	if err != nil {
		return nil, err
	}

	res := limitcalc.Compute(*bracket, eval.Value, factor)
	oldSet := limit.SetLimit

	if res.SetLimit.Equal(oldSet) {
		if s.Metrics != nil {
			s.Metrics.RecordRecalc(metrics.RecalcOutcomeUnchanged)
		}
		return &Result{OldSetLimit: oldSet, NewSetLimit: oldSet}, nil
	}

	trace := limitgen.BuildTrace(matrixParams, bracket, eval.Value, res, nil, overlay.Limits{
		MaxLimit: res.MaxLimit,
		SetLimit: res.SetLimit,
	})

	gen := &domain.CreditLimitGeneration{
		ID:            uuid.New(),
		AccountID:     app.AccountID,
		ApplicationID: app.ID,
		MatrixID:      &bracket.ID,
		MaxLimit:      res.MaxLimit,
		SetLimit:      res.SetLimit,
		Trace:         trace,
		Reason:        domain.GenerationReasonBehavioralScore,
		CreatedAt:     time.Now(),
	}
	if err := s.GenerationRepo.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to store recalculation generation: %w", err)
	}

	err = s.AccountRepo.UpdateLimitTx(ctx, app.AccountID, func(l *domain.AccountLimit) (bool, error) {
		l.SetLimit = res.SetLimit
		l.AvailableLimit = res.SetLimit.Sub(l.UsedLimit)
		if res.MaxLimit.GreaterThan(l.MaxLimit) {
			l.MaxLimit = res.MaxLimit
		}
		if l.MaxLimit.LessThan(l.SetLimit) {
			l.MaxLimit = l.SetLimit
		}
		return true, l.Validate()
	})
	if err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		s.Metrics.RecordRecalc(metrics.RecalcOutcomeApplied)
	}
	s.Logger.Info("behavioral recalculation applied",
		slog.String("application_id", app.ID.String()),
		slog.String("old_set_limit", oldSet.String()),
		slog.String("new_set_limit", res.SetLimit.String()))

	return &Result{OldSetLimit: oldSet, NewSetLimit: res.SetLimit}, nil
}

// RecalculatePreMatrixWithIncome recomputes the pre-matrix simple/reduced
// figures from a fresh affordability signal. When the new pre-matrix max
// exceeds the prior generation's recorded pre-matrix max, a new generation
// is written whose trace advances while the live max/set stay equal to the
// prior row's. Otherwise the call is a pure no-op with no audit row.
func (s *Service) RecalculatePreMatrixWithIncome(ctx context.Context, app *domain.Application, history *domain.AffordabilityHistory) error {
	prior, err := s.GenerationRepo.LatestByApplication(ctx, app.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if prior.Trace.Bracket == nil {
		return nil
	}

	eval, err := s.Evaluator.Evaluate(ctx, history, true)
	if err != nil {
		return err
	}
	if eval.Rejected {
		return nil
	}

	factor := prior.Trace.AdjustmentFactor
	if !factor.IsPositive() {
		factor = decimal.NewFromInt(1)
	}

	simple := limitcalc.AnnuityPrincipal(eval.Value, prior.Trace.Bracket.Interest, prior.Trace.Bracket.MaxDuration)
	reduced := simple.Mul(factor)
	simpleRounded := limitcalc.RoundDownLimit(simple)
	reducedRounded := limitcalc.RoundDownLimit(reduced)

	if !simpleRounded.GreaterThan(prior.Trace.PreMatrixMaxLimit) {
		return nil
	}

	trace := prior.Trace
	trace.Version = domain.TraceVersion
	trace.Affordability = eval.Value
	trace.AdjustmentFactor = factor
	trace.SimpleLimit = simple
	trace.ReducedLimit = reduced
	trace.SimpleLimitRounded = simpleRounded
	trace.ReducedLimitRounded = reducedRounded
	trace.PreMatrixMaxLimit = simpleRounded
	trace.PreMatrixSetLimit = reducedRounded
	trace.Overlays = nil
	// Live figures deliberately stay at the prior generation's values; the
	// advanced trace shadow-tracks the potential limit.
	trace.MaxLimit = prior.MaxLimit
	trace.SetLimit = prior.SetLimit

	gen := &domain.CreditLimitGeneration{
		ID:            uuid.New(),
		AccountID:     app.AccountID,
		ApplicationID: app.ID,
		MatrixID:      prior.MatrixID,
		MaxLimit:      prior.MaxLimit,
		SetLimit:      prior.SetLimit,
		Trace:         trace,
		Reason:        domain.GenerationReasonIncomeAdjustment,
		CreatedAt:     time.Now(),
	}
	if err := s.GenerationRepo.Create(ctx, gen); err != nil {
		return fmt.Errorf("failed to store income recalculation generation: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.RecordGeneration(domain.GenerationReasonIncomeAdjustment, prior.SetLimit.InexactFloat64())
	}
	return nil
}

// recalcParams loads the behavioral recalculation feature configuration and
// reports whether both the feature and its sub-flag are active.
func (s *Service) recalcParams(ctx context.Context) (domain.BehavioralRecalcParams, bool, error) {
	var params domain.BehavioralRecalcParams
	snapshot, err := s.Features.Snapshot(ctx, domain.FeatureBehavioralRecalc)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return params, false, nil
		}
		return params, false, err
	}
	if snapshot == nil || !snapshot.Active {
		return params, false, nil
	}
	if err := snapshot.DecodeParams(&params); err != nil {
		return params, false, nil
	}
	if !params.RecalcActive || params.ScoreWindowDays <= 0 {
		return params, false, nil
	}
	return params, true, nil
}

// recentScore returns the customer's latest score when its partition date
// falls inside the trailing window, nil otherwise.
func (s *Service) recentScore(ctx context.Context, customerID uuid.UUID, windowDays int) (*domain.BehavioralScore, error) {
	score, err := s.Scores.LatestScore(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -windowDays)
	if score.PartitionDate.Before(cutoff) {
		return nil, nil
	}
	return score, nil
}

// skip records a did-not-run outcome and propagates any precondition error.
func (s *Service) skip(err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordRecalc(metrics.RecalcOutcomeSkipped)
	}
	return nil, nil
}
