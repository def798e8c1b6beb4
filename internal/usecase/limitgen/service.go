package limitgen

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
	"github.com/danaflex/limitengine-backend/internal/usecase/matrixparam"
	"github.com/danaflex/limitengine-backend/internal/usecase/overlay"
	"github.com/danaflex/limitengine-backend/pkg/metrics"
)

// Rejection reasons passed to the status notifier.
const (
	RejectReasonNoMatrixMatch     = "no_matrix_match"
	RejectReasonNoAffordability   = "no_affordability_record"
	RejectReasonNoAccountProperty = "no_account_property"
)

// Service orchestrates one credit limit generation pass: resolver → matrix
// lookup → affordability evaluation → calculator → overlay chain → audit
// record → initial ledger set.
type Service struct {
	Resolver  *matrixparam.Resolver
	Evaluator *affordability.Evaluator
	Overlays  *overlay.Chain

	AccountRepo       domain.AccountRepository
	GenerationRepo    domain.GenerationRepository
	MatrixRepo        domain.MatrixRepository
	AffordabilityRepo domain.AffordabilityRepository
	PropertyRepo      domain.AccountPropertyRepository

	Features domain.FeatureProvider
	Income   domain.IncomeVerifier
	Notifier domain.StatusNotifier

	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// NewService creates a new generation Service instance.
func NewService(
	resolver *matrixparam.Resolver,
	evaluator *affordability.Evaluator,
	overlays *overlay.Chain,
	accountRepo domain.AccountRepository,
	generationRepo domain.GenerationRepository,
	matrixRepo domain.MatrixRepository,
	affordabilityRepo domain.AffordabilityRepository,
	propertyRepo domain.AccountPropertyRepository,
	features domain.FeatureProvider,
	income domain.IncomeVerifier,
	notifier domain.StatusNotifier,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Resolver:          resolver,
		Evaluator:         evaluator,
		Overlays:          overlays,
		AccountRepo:       accountRepo,
		GenerationRepo:    generationRepo,
		MatrixRepo:        matrixRepo,
		AffordabilityRepo: affordabilityRepo,
		PropertyRepo:      propertyRepo,
		Features:          features,
		Income:            income,
		Notifier:          notifier,
		Metrics:           collector,
		Logger:            logger,
	}
}

// GenerateCreditLimit computes and records the initial credit limit for an
// application. Not-eligible outcomes (no matrix match, rejected
// affordability) return (0, 0) with the notifier informed; they are not
// errors.
func (s *Service) GenerateCreditLimit(ctx context.Context, app *domain.Application) (decimal.Decimal, decimal.Decimal, error) {
	// A nonzero used_limit means loans are already outstanding against this
	// account; regeneration must not reset the ledger.
	if existing, err := s.AccountRepo.GetLimit(ctx, app.AccountID); err == nil {
		if existing.UsedLimit.IsPositive() {
			s.Logger.Warn("generation short-circuited: used_limit nonzero",
				slog.String("account_id", app.AccountID.String()))
			return existing.MaxLimit, existing.SetLimit, nil
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, decimal.Zero, err
	}

	prop, err := s.PropertyRepo.GetByCustomerID(ctx, app.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.reject(ctx, app, RejectReasonNoAccountProperty)
		}
		return decimal.Zero, decimal.Zero, err
	}

	params, err := s.Resolver.Resolve(ctx, app, prop)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	bracket, err := s.MatrixRepo.FindBracket(ctx, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.reject(ctx, app, RejectReasonNoMatrixMatch)
		}
		return decimal.Zero, decimal.Zero, err
	}

	history, err := s.AffordabilityRepo.LatestByApplication(ctx, app.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.reject(ctx, app, RejectReasonNoAffordability)
		}
		return decimal.Zero, decimal.Zero, err
	}

	incomePositive, err := s.Income.ProcessedIncomePositive(ctx, app.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	eval, err := s.Evaluator.Evaluate(ctx, history, incomePositive)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if eval.Rejected {
		return s.reject(ctx, app, eval.RejectReason)
	}

	factor, err := s.adjustmentFactor(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	res := limitcalc.Compute(*bracket, eval.Value, factor)

	limits, adjustments, err := s.Overlays.Apply(ctx, app, prop, overlay.Limits{
		MaxLimit: res.MaxLimit,
		SetLimit: res.SetLimit,
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	trace := BuildTrace(params, bracket, eval.Value, res, adjustments, limits)
	if _, err := s.StoreCreditLimitGenerated(ctx, app, &bracket.ID, limits.MaxLimit, limits.SetLimit, trace, domain.GenerationReasonInitial); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if err := s.StoreRelatedData(ctx, app, limits.MaxLimit, limits.SetLimit); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return limits.MaxLimit, limits.SetLimit, nil
}

// StoreCreditLimitGenerated appends one immutable generation record carrying
// the full computation trace.
func (s *Service) StoreCreditLimitGenerated(ctx context.Context, app *domain.Application, matrixID *uuid.UUID, maxLimit, setLimit decimal.Decimal, trace domain.GenerationTrace, reason string) (*domain.CreditLimitGeneration, error) {
	gen := &domain.CreditLimitGeneration{
		ID:            uuid.New(),
		AccountID:     app.AccountID,
		ApplicationID: app.ID,
		MatrixID:      matrixID,
		MaxLimit:      maxLimit,
		SetLimit:      setLimit,
		Trace:         trace,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}
	if err := s.GenerationRepo.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to store credit limit generation: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.RecordGeneration(reason, setLimit.InexactFloat64())
	}
	return gen, nil
}

// StoreRelatedData idempotently creates the account and its limit row on the
// first-ever generation, then sets max/set/available with used_limit zero
// under the account row lock.
func (s *Service) StoreRelatedData(ctx context.Context, app *domain.Application, maxLimit, setLimit decimal.Decimal) error {
	if _, err := s.AccountRepo.GetByID(ctx, app.AccountID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		account := &domain.Account{
			ID:         app.AccountID,
			CustomerID: app.CustomerID,
			CreatedAt:  time.Now(),
		}
		if err := s.AccountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
	}

	if _, err := s.AccountRepo.GetLimit(ctx, app.AccountID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := s.AccountRepo.CreateLimit(ctx, &domain.AccountLimit{AccountID: app.AccountID}); err != nil {
			return fmt.Errorf("failed to create account limit: %w", err)
		}
	}

	return s.AccountRepo.UpdateLimitTx(ctx, app.AccountID, func(limit *domain.AccountLimit) (bool, error) {
		if limit.UsedLimit.IsPositive() {
			// Regeneration raced a disbursal; leave the ledger alone.
			return false, nil
		}
		limit.MaxLimit = maxLimit
		limit.SetLimit = setLimit
		limit.AvailableLimit = setLimit
		limit.UsedLimit = decimal.Zero
		return true, limit.Validate()
	})
}

// BuildTrace assembles the structured trace for one calculator pass.
func BuildTrace(params domain.MatrixParams, bracket *domain.MatrixBracket, affordabilityValue decimal.Decimal, res limitcalc.Result, adjustments []domain.OverlayAdjustment, final overlay.Limits) domain.GenerationTrace {
	trace := domain.GenerationTrace{
		Version:             domain.TraceVersion,
		PGood:               params.MinThresholdLTE,
		Affordability:       affordabilityValue,
		AdjustmentFactor:    res.AdjustmentFactor,
		MatrixParams:        &params,
		SimpleLimit:         res.SimpleLimit,
		ReducedLimit:        res.ReducedLimit,
		SimpleLimitRounded:  res.SimpleLimitRounded,
		ReducedLimitRounded: res.ReducedLimitRounded,
		PreMatrixMaxLimit:   res.SimpleLimitRounded,
		PreMatrixSetLimit:   res.ReducedLimitRounded,
		PreOverlayMaxLimit:  res.MaxLimit,
		PreOverlaySetLimit:  res.SetLimit,
		Overlays:            adjustments,
		MaxLimit:            final.MaxLimit,
		SetLimit:            final.SetLimit,
	}
	if bracket != nil {
		trace.Bracket = &domain.TraceBracket{
			Interest:      bracket.Interest,
			MinLoanAmount: bracket.MinLoanAmount,
			MaxLoanAmount: bracket.MaxLoanAmount,
			MaxDuration:   bracket.MaxDuration,
		}
	}
	return trace
}

// adjustmentFactor reads the configured calculator adjustment factor,
// defaulting to 1 when the feature is absent, inactive or out of range.
func (s *Service) adjustmentFactor(ctx context.Context) (decimal.Decimal, error) {
	return AdjustmentFactor(ctx, s.Features)
}

// AdjustmentFactor reads FeatureLimitAdjustment from the provider. Absent,
// inactive or out-of-range configuration yields 1.
func AdjustmentFactor(ctx context.Context, features domain.FeatureProvider) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	snapshot, err := features.Snapshot(ctx, domain.FeatureLimitAdjustment)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return one, nil
		}
		return decimal.Zero, err
	}
	if snapshot == nil || !snapshot.Active {
		return one, nil
	}
	var params domain.LimitAdjustmentParams
	if err := snapshot.DecodeParams(&params); err != nil {
		return one, nil
	}
	if params.AdjustmentFactor == nil || !params.AdjustmentFactor.IsPositive() || params.AdjustmentFactor.GreaterThan(one) {
		return one, nil
	}
	return *params.AdjustmentFactor, nil
}

// reject records a zero-limit outcome and informs the status notifier.
func (s *Service) reject(ctx context.Context, app *domain.Application, reason string) (decimal.Decimal, decimal.Decimal, error) {
	s.Logger.Info("credit limit rejected",
		slog.String("application_id", app.ID.String()),
		slog.String("reason", reason))
	if s.Metrics != nil {
		s.Metrics.RecordRejection(reason)
	}
	if err := s.Notifier.NotifyRejected(ctx, app.ID, reason); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return decimal.Zero, decimal.Zero, nil
}
