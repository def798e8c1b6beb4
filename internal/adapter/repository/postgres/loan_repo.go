package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// loanHistoryRepository implements domain.LoanHistoryRepository
type loanHistoryRepository struct {
	db *DB
}

// NewLoanHistoryRepository creates a new loan history repository
func NewLoanHistoryRepository(db *DB) domain.LoanHistoryRepository {
	return &loanHistoryRepository{db: db}
}

// HasPaidOffLoanOnLine reports whether the customer has at least one paid-off
// loan on the given product line.
func (r *loanHistoryRepository) HasPaidOffLoanOnLine(ctx context.Context, customerID uuid.UUID, line domain.ProductLine) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM loans l
			JOIN applications a ON a.id = l.application_id
			WHERE a.customer_id = $1
			  AND a.product_line = $2
			  AND l.status = $3
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, customerID, string(line), string(domain.LoanStatusPaidOff)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check paid-off loans: %w", err)
	}

	return exists, nil
}
