package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danaflex/limitengine-backend/internal/domain"
	"github.com/danaflex/limitengine-backend/pkg/metrics"
)

// Service keeps the usage ledger consistent with loan status transitions and
// answers the turbo-limit supersession question.
type Service struct {
	AccountRepo    domain.AccountRepository
	GenerationRepo domain.GenerationRepository
	Metrics        *metrics.Collector
	Logger         *slog.Logger
}

// NewService creates a new ledger Service instance.
func NewService(
	accountRepo domain.AccountRepository,
	generationRepo domain.GenerationRepository,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		AccountRepo:    accountRepo,
		GenerationRepo: generationRepo,
		Metrics:        collector,
		Logger:         logger,
	}
}

// UpdateAvailableLimit moves the loan amount between used_limit and
// available_limit on a status transition.
// Logic:
//  1. A limit-increasing terminal status (paid off, sold off) releases the
//     loan amount minus any early-release portion back to available_limit.
//  2. A limit-decreasing status (active disbursement) consumes
//     available_limit into used_limit by the full loan amount.
//  3. Any other status is a no-op.
//  4. An early-release portion exceeding the loan's own amount indicates
//     upstream data corruption: the whole mutation is rejected with a log
//     line and no error, leaving the ledger untouched.
//
// The mutation runs inside the account's row-locked transaction.
func (s *Service) UpdateAvailableLimit(ctx context.Context, loan *domain.Loan) error {
	switch {
	case loan.Status.IncreasesAvailableLimit():
		release := loan.Amount.Sub(loan.EarlyReleaseAmount)
		if release.IsNegative() {
			s.Logger.Warn("early release exceeds loan amount, rejecting ledger mutation",
				slog.String("loan_id", loan.ID.String()),
				slog.String("amount", loan.Amount.String()),
				slog.String("early_release_amount", loan.EarlyReleaseAmount.String()))
			s.record(metrics.LedgerMutationRejected)
			return nil
		}
		err := s.AccountRepo.UpdateLimitTx(ctx, loan.AccountID, func(l *domain.AccountLimit) (bool, error) {
			l.UsedLimit = l.UsedLimit.Sub(release)
			l.AvailableLimit = l.AvailableLimit.Add(release)
			return true, l.Validate()
		})
		if err != nil {
			return err
		}
		s.record(metrics.LedgerMutationRelease)
		return nil

	case loan.Status.DecreasesAvailableLimit():
		err := s.AccountRepo.UpdateLimitTx(ctx, loan.AccountID, func(l *domain.AccountLimit) (bool, error) {
			l.AvailableLimit = l.AvailableLimit.Sub(loan.Amount)
			l.UsedLimit = l.UsedLimit.Add(loan.Amount)
			return true, l.Validate()
		})
		if err != nil {
			return err
		}
		s.record(metrics.LedgerMutationConsume)
		return nil

	default:
		s.record(metrics.LedgerMutationNoop)
		return nil
	}
}

// IsUsingTurboLimit compares the customer's latest primary-product
// generation against the latest turbo generation. The turbo limit is in use
// until the primary max_limit strictly exceeds the turbo max_limit. A
// customer with no turbo generation never uses it; one with a turbo
// generation but no primary generation still does.
func (s *Service) IsUsingTurboLimit(ctx context.Context, app *domain.Application) (bool, error) {
	turbo, err := s.GenerationRepo.LatestByCustomerAndProductLine(ctx, app.CustomerID, domain.ProductLineTurbo)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	primary, err := s.GenerationRepo.LatestByCustomerAndProductLine(ctx, app.CustomerID, domain.ProductLineRevolving)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return true, nil
		}
		return false, err
	}

	return !primary.MaxLimit.GreaterThan(turbo.MaxLimit), nil
}

func (s *Service) record(kind string) {
	if s.Metrics != nil {
		s.Metrics.RecordLedgerMutation(kind)
	}
}
