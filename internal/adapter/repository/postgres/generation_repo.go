package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// generationRepository implements domain.GenerationRepository
type generationRepository struct {
	db *DB
}

// NewGenerationRepository creates a new credit limit generation repository
func NewGenerationRepository(db *DB) domain.GenerationRepository {
	return &generationRepository{db: db}
}

// Create appends an immutable generation row. The trace is stored as JSONB.
func (r *generationRepository) Create(ctx context.Context, gen *domain.CreditLimitGeneration) error {
	traceJSON, err := json.Marshal(gen.Trace)
	if err != nil {
		return fmt.Errorf("failed to marshal generation trace: %w", err)
	}

	query := `
		INSERT INTO credit_limit_generations (id, account_id, application_id, matrix_id, max_limit, set_limit, trace, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var matrixID interface{}
	if gen.MatrixID != nil {
		matrixID = gen.MatrixID
	}

	_, err = r.db.ExecContext(ctx, query,
		gen.ID,
		gen.AccountID,
		gen.ApplicationID,
		matrixID,
		gen.MaxLimit.String(),
		gen.SetLimit.String(),
		traceJSON,
		gen.Reason,
		gen.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create credit limit generation: %w", err)
	}

	return nil
}

// LatestByApplication retrieves the newest generation row for an application
func (r *generationRepository) LatestByApplication(ctx context.Context, applicationID uuid.UUID) (*domain.CreditLimitGeneration, error) {
	query := `
		SELECT id, account_id, application_id, matrix_id, max_limit, set_limit, trace, reason, created_at
		FROM credit_limit_generations
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanGeneration(r.db.QueryRowContext(ctx, query, applicationID))
}

// LatestByCustomerAndProductLine retrieves the newest generation row across
// all of a customer's applications on one product line.
func (r *generationRepository) LatestByCustomerAndProductLine(ctx context.Context, customerID uuid.UUID, line domain.ProductLine) (*domain.CreditLimitGeneration, error) {
	query := `
		SELECT g.id, g.account_id, g.application_id, g.matrix_id, g.max_limit, g.set_limit, g.trace, g.reason, g.created_at
		FROM credit_limit_generations g
		JOIN applications a ON a.id = g.application_id
		WHERE a.customer_id = $1 AND a.product_line = $2
		ORDER BY g.created_at DESC
		LIMIT 1
	`

	return scanGeneration(r.db.QueryRowContext(ctx, query, customerID, string(line)))
}

func scanGeneration(row *sql.Row) (*domain.CreditLimitGeneration, error) {
	var gen domain.CreditLimitGeneration
	var matrixID sql.NullString
	var maxStr, setStr string
	var traceJSON []byte

	err := row.Scan(
		&gen.ID,
		&gen.AccountID,
		&gen.ApplicationID,
		&matrixID,
		&maxStr,
		&setStr,
		&traceJSON,
		&gen.Reason,
		&gen.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credit limit generation: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get credit limit generation: %w", err)
	}

	if matrixID.Valid {
		id, err := uuid.Parse(matrixID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse matrix_id: %w", err)
		}
		gen.MatrixID = &id
	}

	if gen.MaxLimit, err = decimal.NewFromString(maxStr); err != nil {
		return nil, fmt.Errorf("failed to parse max_limit: %w", err)
	}
	if gen.SetLimit, err = decimal.NewFromString(setStr); err != nil {
		return nil, fmt.Errorf("failed to parse set_limit: %w", err)
	}

	if err := json.Unmarshal(traceJSON, &gen.Trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation trace: %w", err)
	}

	return &gen, nil
}
