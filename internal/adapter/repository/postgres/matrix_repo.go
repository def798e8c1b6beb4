package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// matrixRepository implements domain.MatrixRepository
type matrixRepository struct {
	db *DB
}

// NewMatrixRepository creates a new credit matrix repository
func NewMatrixRepository(db *DB) domain.MatrixRepository {
	return &matrixRepository{db: db}
}

// FindBracket retrieves the matrix row whose thresholds cover the effective
// pgood and whose categorical columns match. The narrowest covering band
// wins when rows overlap.
func (r *matrixRepository) FindBracket(ctx context.Context, params domain.MatrixParams) (*domain.MatrixBracket, error) {
	query := `
		SELECT id, matrix_type, is_salaried, is_premium_area, min_threshold, max_threshold, interest, min_loan_amount, max_loan_amount, max_duration
		FROM credit_matrix
		WHERE matrix_type = $1
		  AND is_salaried = $2
		  AND is_premium_area = $3
		  AND min_threshold <= $4
		  AND max_threshold >= $5
		ORDER BY max_threshold - min_threshold
		LIMIT 1
	`

	var bracket domain.MatrixBracket
	var minThrStr, maxThrStr, interestStr, minAmtStr, maxAmtStr string

	err := r.db.QueryRowContext(ctx, query,
		string(params.MatrixType),
		params.IsSalaried,
		params.IsPremiumArea,
		params.MinThresholdLTE.String(),
		params.MaxThresholdGTE.String(),
	).Scan(
		&bracket.ID,
		&bracket.MatrixType,
		&bracket.IsSalaried,
		&bracket.IsPremiumArea,
		&minThrStr,
		&maxThrStr,
		&interestStr,
		&minAmtStr,
		&maxAmtStr,
		&bracket.MaxDuration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("matrix bracket: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find matrix bracket: %w", err)
	}

	for _, col := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{minThrStr, &bracket.MinThreshold},
		{maxThrStr, &bracket.MaxThreshold},
		{interestStr, &bracket.Interest},
		{minAmtStr, &bracket.MinLoanAmount},
		{maxAmtStr, &bracket.MaxLoanAmount},
	} {
		value, err := decimal.NewFromString(col.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse matrix column: %w", err)
		}
		*col.dest = value
	}

	return &bracket, nil
}
