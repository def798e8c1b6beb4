package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danaflex/limitengine-backend/internal/adapter/provider/memory"
	"github.com/danaflex/limitengine-backend/internal/adapter/repository/postgres"
	"github.com/danaflex/limitengine-backend/internal/config"
	"github.com/danaflex/limitengine-backend/internal/usecase/affordability"
	"github.com/danaflex/limitengine-backend/internal/usecase/ledger"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitgen"
	"github.com/danaflex/limitengine-backend/internal/usecase/matrixparam"
	"github.com/danaflex/limitengine-backend/internal/usecase/overlay"
	"github.com/danaflex/limitengine-backend/internal/usecase/recalc"
	"github.com/danaflex/limitengine-backend/internal/usecase/seeder"
	"github.com/danaflex/limitengine-backend/pkg/metrics"
)

// engine bundles the in-process services the limit engine exposes to its
// embedding application. There is no network surface of its own; callers
// invoke the services directly.
type engine struct {
	Generation *limitgen.Service
	Recalc     *recalc.Service
	Ledger     *ledger.Service
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.NewDB(cfg.ConnString())
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories (Postgres)
	accountRepo := postgres.NewAccountRepository(db)
	generationRepo := postgres.NewGenerationRepository(db)
	matrixRepo := postgres.NewMatrixRepository(db)
	affordabilityRepo := postgres.NewAffordabilityRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	loanHistoryRepo := postgres.NewLoanHistoryRepository(db)

	// Providers. In-memory stand-ins until the upstream feature/eligibility
	// services are reachable from this deployment.
	features := memory.NewFeatureProvider()
	eligibility := memory.NewEligibilityProvider()
	scores := memory.NewScoreProvider()
	bankStatements := memory.NewBankStatementProvider()
	income := memory.NewIncomeVerifier()
	notifier := memory.NewLogNotifier(logger)

	featureSeeder := seeder.NewFeatureSeeder(features)
	if err := featureSeeder.Seed(context.Background()); err != nil {
		logger.Error("failed to seed feature defaults", slog.Any("error", err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(logger)

	// Services (Use Cases)
	resolver := matrixparam.NewResolver(loanHistoryRepo, eligibility, features)
	evaluator := affordability.NewEvaluator(features)
	overlays := overlay.NewChain(eligibility, features, bankStatements)

	eng := &engine{
		Generation: limitgen.NewService(resolver, evaluator, overlays,
			accountRepo, generationRepo, matrixRepo, affordabilityRepo, propertyRepo,
			features, income, notifier, collector, logger),
		Recalc: recalc.NewService(resolver, evaluator,
			accountRepo, generationRepo, matrixRepo, affordabilityRepo, propertyRepo,
			features, scores, collector, logger),
		Ledger: ledger.NewService(accountRepo, generationRepo, collector, logger),
	}
	_ = eng

	metricsServer := collector.StartServer(cfg.MetricsAddr)
	logger.Info("limit engine started", slog.String("metrics_addr", cfg.MetricsAddr))

	waitForShutdown(logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := collector.Shutdown(shutdownCtx, metricsServer); err != nil {
		logger.Error("failed to stop metrics server", slog.Any("error", err))
	}
	logger.Info("limit engine stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// waitForShutdown blocks until SIGTERM or SIGINT.
func waitForShutdown(logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("received signal, shutting down gracefully", slog.String("signal", sig.String()))
}
