//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danaflex/limitengine-backend/internal/adapter/provider/memory"
	"github.com/danaflex/limitengine-backend/internal/adapter/repository/postgres"
	"github.com/danaflex/limitengine-backend/internal/domain"
	"github.com/danaflex/limitengine-backend/internal/usecase/affordability"
	"github.com/danaflex/limitengine-backend/internal/usecase/ledger"
	"github.com/danaflex/limitengine-backend/internal/usecase/limitgen"
	"github.com/danaflex/limitengine-backend/internal/usecase/matrixparam"
	"github.com/danaflex/limitengine-backend/internal/usecase/overlay"
	"github.com/danaflex/limitengine-backend/internal/usecase/recalc"
)

var db *postgres.DB

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	db, err = postgres.NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	// Self-healing setup: create the schema if it doesn't exist.
	if err := setupSchema(ctx, db); err != nil {
		panic(fmt.Sprintf("Failed to setup schema: %v", err))
	}

	code := m.Run()

	os.Exit(code)
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	return "host=localhost port=5432 user=postgres password=postgres dbname=limitengine sslmode=disable"
}

// setupSchema creates the tables the engine expects.
func setupSchema(ctx context.Context, db *postgres.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			customer_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS account_limits (
			account_id UUID PRIMARY KEY,
			max_limit DECIMAL NOT NULL,
			set_limit DECIMAL NOT NULL,
			available_limit DECIMAL NOT NULL,
			used_limit DECIMAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id UUID PRIMARY KEY,
			customer_id UUID NOT NULL,
			account_id UUID NOT NULL,
			partner_id UUID,
			product_line TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_limit_generations (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL,
			application_id UUID NOT NULL,
			matrix_id UUID,
			max_limit DECIMAL NOT NULL,
			set_limit DECIMAL NOT NULL,
			trace JSONB NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credit_matrix (
			id UUID PRIMARY KEY,
			matrix_type TEXT NOT NULL,
			is_salaried BOOLEAN NOT NULL,
			is_premium_area BOOLEAN NOT NULL,
			min_threshold DECIMAL NOT NULL,
			max_threshold DECIMAL NOT NULL,
			interest DECIMAL NOT NULL,
			min_loan_amount DECIMAL NOT NULL,
			max_loan_amount DECIMAL NOT NULL,
			max_duration INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS affordability_history (
			id UUID PRIMARY KEY,
			application_id UUID NOT NULL,
			value DECIMAL NOT NULL,
			is_alternative BOOLEAN NOT NULL,
			change_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS account_properties (
			customer_id UUID PRIMARY KEY,
			pgood DECIMAL NOT NULL,
			is_entry_level BOOLEAN NOT NULL,
			is_premium_area BOOLEAN NOT NULL,
			is_salaried BOOLEAN NOT NULL,
			is_proven_repeat BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS loans (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL,
			application_id UUID NOT NULL,
			amount DECIMAL NOT NULL,
			status TEXT NOT NULL,
			early_release_amount DECIMAL NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// testEngine wires the full engine against the live database with seedable
// in-memory providers.
type testEngine struct {
	generation *limitgen.Service
	recalc     *recalc.Service
	ledger     *ledger.Service

	features *memory.FeatureProvider
	scores   *memory.ScoreProvider
	income   *memory.IncomeVerifier
}

func newTestEngine() *testEngine {
	accountRepo := postgres.NewAccountRepository(db)
	generationRepo := postgres.NewGenerationRepository(db)
	matrixRepo := postgres.NewMatrixRepository(db)
	affordabilityRepo := postgres.NewAffordabilityRepository(db)
	propertyRepo := postgres.NewPropertyRepository(db)
	loanHistoryRepo := postgres.NewLoanHistoryRepository(db)

	features := memory.NewFeatureProvider()
	eligibility := memory.NewEligibilityProvider()
	scores := memory.NewScoreProvider()
	bankStatements := memory.NewBankStatementProvider()
	income := memory.NewIncomeVerifier()
	notifier := memory.NewLogNotifier(nil)

	resolver := matrixparam.NewResolver(loanHistoryRepo, eligibility, features)
	evaluator := affordability.NewEvaluator(features)
	overlays := overlay.NewChain(eligibility, features, bankStatements)

	return &testEngine{
		generation: limitgen.NewService(resolver, evaluator, overlays,
			accountRepo, generationRepo, matrixRepo, affordabilityRepo, propertyRepo,
			features, income, notifier, nil, nil),
		recalc: recalc.NewService(resolver, evaluator,
			accountRepo, generationRepo, matrixRepo, affordabilityRepo, propertyRepo,
			features, scores, nil, nil),
		ledger:   ledger.NewService(accountRepo, generationRepo, nil, nil),
		features: features,
		scores:   scores,
		income:   income,
	}
}

// seedApplication inserts a fresh customer with one application, a covering
// matrix row and an affordability record, and returns the application.
func seedApplication(ctx context.Context, t *testing.T, affordabilityValue int64) *domain.Application {
	t.Helper()

	app := &domain.Application{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		AccountID:   uuid.New(),
		ProductLine: domain.ProductLineRevolving,
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO applications (id, customer_id, account_id, product_line) VALUES ($1, $2, $3, $4)`,
		app.ID, app.CustomerID, app.AccountID, string(app.ProductLine))
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO account_properties (customer_id, pgood, is_entry_level, is_premium_area, is_salaried, is_proven_repeat)
		 VALUES ($1, $2, false, false, false, false)`,
		app.CustomerID, "0.85")
	require.NoError(t, err)

	// Zero-rate bracket over 5 months: max limit = affordability × 5.
	// Created once; later runs reuse the existing row.
	var bracketExists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_matrix WHERE matrix_type = 'STANDARD' AND NOT is_salaried AND NOT is_premium_area)`,
	).Scan(&bracketExists)
	require.NoError(t, err)
	if !bracketExists {
		_, err = db.ExecContext(ctx,
			`INSERT INTO credit_matrix (id, matrix_type, is_salaried, is_premium_area, min_threshold, max_threshold, interest, min_loan_amount, max_loan_amount, max_duration)
			 VALUES ($1, 'STANDARD', false, false, '0', '1', '0', '500000', '20000000', 5)`,
			uuid.New())
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO affordability_history (id, application_id, value, is_alternative, created_at)
		 VALUES ($1, $2, $3, false, $4)`,
		uuid.New(), app.ID, decimal.NewFromInt(affordabilityValue).String(), time.Now())
	require.NoError(t, err)

	return app
}

func TestE2E_GenerationAndLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	app := seedApplication(ctx, t, 1_000_000)
	eng.income.Seed(app.ID, true)

	maxLimit, setLimit, err := eng.generation.GenerateCreditLimit(ctx, app)
	require.NoError(t, err)
	assert.True(t, maxLimit.Equal(decimal.NewFromInt(5_000_000)), "max limit: %s", maxLimit)
	assert.True(t, setLimit.Equal(decimal.NewFromInt(5_000_000)), "set limit: %s", setLimit)

	accountRepo := postgres.NewAccountRepository(db)
	limit, err := accountRepo.GetLimit(ctx, app.AccountID)
	require.NoError(t, err)
	assert.True(t, limit.AvailableLimit.Equal(setLimit))
	assert.True(t, limit.UsedLimit.IsZero())

	// Disburse a loan, then pay it off: the ledger must conserve
	// available + used == set throughout.
	loan := &domain.Loan{
		ID:            uuid.New(),
		AccountID:     app.AccountID,
		ApplicationID: app.ID,
		Amount:        decimal.NewFromInt(2_000_000),
		Status:        domain.LoanStatusActive,
	}
	require.NoError(t, eng.ledger.UpdateAvailableLimit(ctx, loan))

	limit, err = accountRepo.GetLimit(ctx, app.AccountID)
	require.NoError(t, err)
	assert.True(t, limit.AvailableLimit.Equal(decimal.NewFromInt(3_000_000)))
	assert.True(t, limit.UsedLimit.Equal(decimal.NewFromInt(2_000_000)))
	require.NoError(t, limit.Validate())

	loan.Status = domain.LoanStatusPaidOff
	require.NoError(t, eng.ledger.UpdateAvailableLimit(ctx, loan))

	limit, err = accountRepo.GetLimit(ctx, app.AccountID)
	require.NoError(t, err)
	assert.True(t, limit.AvailableLimit.Equal(setLimit))
	assert.True(t, limit.UsedLimit.IsZero())
	require.NoError(t, limit.Validate())
}

func TestE2E_BehavioralRecalcAgainstLiveRows(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine()

	app := seedApplication(ctx, t, 1_000_000)
	eng.income.Seed(app.ID, true)

	_, _, err := eng.generation.GenerateCreditLimit(ctx, app)
	require.NoError(t, err)

	// An outstanding loan makes the account eligible for recalculation.
	loan := &domain.Loan{
		ID:            uuid.New(),
		AccountID:     app.AccountID,
		ApplicationID: app.ID,
		Amount:        decimal.NewFromInt(1_000_000),
		Status:        domain.LoanStatusActive,
	}
	require.NoError(t, eng.ledger.UpdateAvailableLimit(ctx, loan))

	eng.features.Seed(domain.FeatureSnapshot{
		Name:       domain.FeatureBehavioralRecalc,
		Active:     true,
		Parameters: []byte(`{"recalc_active": true, "score_window_days": 30}`),
	})
	eng.scores.Seed(domain.BehavioralScore{
		CustomerID:    app.CustomerID,
		Score:         decimal.RequireFromString("0.90"),
		PartitionDate: time.Now().AddDate(0, 0, -1),
	})

	// Same bracket, same affordability: the pass runs but changes nothing.
	result, err := eng.recalc.RecalculateWithBehavioralScore(ctx, app)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Changed())
}
