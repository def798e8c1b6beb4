package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// propertyRepository implements domain.AccountPropertyRepository
type propertyRepository struct {
	db *DB
}

// NewPropertyRepository creates a new account property repository
func NewPropertyRepository(db *DB) domain.AccountPropertyRepository {
	return &propertyRepository{db: db}
}

// GetByCustomerID retrieves the underwriting property flags for a customer
func (r *propertyRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.AccountProperty, error) {
	query := `
		SELECT customer_id, pgood, is_entry_level, is_premium_area, is_salaried, is_proven_repeat
		FROM account_properties
		WHERE customer_id = $1
	`

	var prop domain.AccountProperty
	var pgoodStr string

	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&prop.CustomerID,
		&pgoodStr,
		&prop.IsEntryLevel,
		&prop.IsPremiumArea,
		&prop.IsSalaried,
		&prop.IsProvenRepeat,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account property for customer %s: %w", customerID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account property: %w", err)
	}

	prop.PGood, err = decimal.NewFromString(pgoodStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgood: %w", err)
	}

	return &prop, nil
}
