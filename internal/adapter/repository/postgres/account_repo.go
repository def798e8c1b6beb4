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

// accountRepository implements domain.AccountRepository
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, customer_id, created_at
		FROM accounts
		WHERE id = $1
	`

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.CustomerID,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return &account, nil
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, customer_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.CustomerID,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetLimit retrieves the current limit projection for an account
func (r *accountRepository) GetLimit(ctx context.Context, accountID uuid.UUID) (*domain.AccountLimit, error) {
	query := `
		SELECT account_id, max_limit, set_limit, available_limit, used_limit
		FROM account_limits
		WHERE account_id = $1
	`

	return scanLimit(r.db.QueryRowContext(ctx, query, accountID), accountID)
}

// CreateLimit creates the initial limit row for an account
func (r *accountRepository) CreateLimit(ctx context.Context, limit *domain.AccountLimit) error {
	query := `
		INSERT INTO account_limits (account_id, max_limit, set_limit, available_limit, used_limit)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		limit.AccountID,
		limit.MaxLimit.String(),
		limit.SetLimit.String(),
		limit.AvailableLimit.String(),
		limit.UsedLimit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create account limit: %w", err)
	}

	return nil
}

// UpdateLimitTx applies fn to the account's limit row under a row-level lock.
// The row is read with SELECT ... FOR UPDATE inside a single transaction, so
// concurrent mutations of the same account serialize. When fn returns false
// the transaction commits without writing.
func (r *accountRepository) UpdateLimitTx(ctx context.Context, accountID uuid.UUID, fn func(limit *domain.AccountLimit) (bool, error)) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	lockQuery := `
		SELECT account_id, max_limit, set_limit, available_limit, used_limit
		FROM account_limits
		WHERE account_id = $1
		FOR UPDATE
	`

	limit, err := scanLimit(dbTx.QueryRowContext(ctx, lockQuery, accountID), accountID)
	if err != nil {
		return err
	}

	write, err := fn(limit)
	if err != nil {
		return err
	}
	if !write {
		return dbTx.Commit()
	}

	updateQuery := `
		UPDATE account_limits
		SET max_limit = $2, set_limit = $3, available_limit = $4, used_limit = $5
		WHERE account_id = $1
	`

	_, err = dbTx.ExecContext(ctx, updateQuery,
		limit.AccountID,
		limit.MaxLimit.String(),
		limit.SetLimit.String(),
		limit.AvailableLimit.String(),
		limit.UsedLimit.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account limit: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit limit update: %w", err)
	}

	return nil
}

// scanLimit reads one account_limits row and parses the DECIMAL columns.
func scanLimit(row *sql.Row, accountID uuid.UUID) (*domain.AccountLimit, error) {
	var limit domain.AccountLimit
	var maxStr, setStr, availableStr, usedStr string

	err := row.Scan(
		&limit.AccountID,
		&maxStr,
		&setStr,
		&availableStr,
		&usedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account limit %s: %w", accountID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account limit: %w", err)
	}

	for _, col := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{maxStr, &limit.MaxLimit},
		{setStr, &limit.SetLimit},
		{availableStr, &limit.AvailableLimit},
		{usedStr, &limit.UsedLimit},
	} {
		value, err := decimal.NewFromString(col.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse limit column: %w", err)
		}
		*col.dest = value
	}

	return &limit, nil
}
