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

// affordabilityRepository implements domain.AffordabilityRepository
type affordabilityRepository struct {
	db *DB
}

// NewAffordabilityRepository creates a new affordability history repository
func NewAffordabilityRepository(db *DB) domain.AffordabilityRepository {
	return &affordabilityRepository{db: db}
}

// LatestByApplication retrieves the newest affordability record for an application
func (r *affordabilityRepository) LatestByApplication(ctx context.Context, applicationID uuid.UUID) (*domain.AffordabilityHistory, error) {
	query := `
		SELECT id, application_id, value, is_alternative, change_reason, created_at
		FROM affordability_history
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var history domain.AffordabilityHistory
	var valueStr string
	var changeReason sql.NullString

	err := r.db.QueryRowContext(ctx, query, applicationID).Scan(
		&history.ID,
		&history.ApplicationID,
		&valueStr,
		&history.IsAlternative,
		&changeReason,
		&history.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("affordability history for application %s: %w", applicationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get affordability history: %w", err)
	}

	history.Value, err = decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse affordability value: %w", err)
	}
	if changeReason.Valid {
		history.ChangeReason = changeReason.String
	}

	return &history, nil
}
