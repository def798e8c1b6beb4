package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories and providers when the requested
// record does not exist. Callers treat it as "reference data absent" and
// degrade to a safe default rather than failing.
var ErrNotFound = errors.New("record not found")

// AccountRepository defines persistence operations for accounts and their
// limit projections.
type AccountRepository interface {
	// GetByID retrieves an account by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// Create creates a new account.
	Create(ctx context.Context, account *Account) error

	// GetLimit retrieves the current limit projection for an account.
	// Returns ErrNotFound if the account has no limit row yet.
	GetLimit(ctx context.Context, accountID uuid.UUID) (*AccountLimit, error)

	// CreateLimit creates the initial (zero) limit row for an account.
	CreateLimit(ctx context.Context, limit *AccountLimit) error

	// UpdateLimitTx runs fn against the account's limit row inside one
	// atomic transaction holding a row-level lock. fn receives the current
	// values and mutates them in place; returning false skips the write and
	// commits nothing. Any error from fn rolls the transaction back.
	UpdateLimitTx(ctx context.Context, accountID uuid.UUID, fn func(limit *AccountLimit) (bool, error)) error
}

// GenerationRepository defines persistence operations for the append-only
// CreditLimitGeneration audit trail.
type GenerationRepository interface {
	// Create appends a new generation record. Records are never updated.
	Create(ctx context.Context, gen *CreditLimitGeneration) error

	// LatestByApplication retrieves the most recent generation for an
	// application. Returns ErrNotFound if none exists.
	LatestByApplication(ctx context.Context, applicationID uuid.UUID) (*CreditLimitGeneration, error)

	// LatestByCustomerAndProductLine retrieves the most recent generation
	// across a customer's applications on the given product line.
	// Returns ErrNotFound if none exists.
	LatestByCustomerAndProductLine(ctx context.Context, customerID uuid.UUID, line ProductLine) (*CreditLimitGeneration, error)
}

// MatrixRepository defines read-only access to credit matrix reference data.
type MatrixRepository interface {
	// FindBracket retrieves the matrix bracket matching the selection
	// parameters. Returns ErrNotFound when no row matches, which callers
	// treat as "not eligible" rather than an error.
	FindBracket(ctx context.Context, params MatrixParams) (*MatrixBracket, error)
}

// AffordabilityRepository defines read access to affordability signals.
type AffordabilityRepository interface {
	// LatestByApplication retrieves the newest affordability record for an
	// application. Returns ErrNotFound if none exists.
	LatestByApplication(ctx context.Context, applicationID uuid.UUID) (*AffordabilityHistory, error)
}

// AccountPropertyRepository defines read access to per-customer
// underwriting flags.
type AccountPropertyRepository interface {
	// GetByCustomerID retrieves the property row for a customer.
	// Returns ErrNotFound if absent.
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*AccountProperty, error)
}

// LoanHistoryRepository defines read access to a customer's loan history.
type LoanHistoryRepository interface {
	// HasPaidOffLoanOnLine reports whether the customer has at least one
	// paid-off loan on the given product line.
	HasPaidOffLoanOnLine(ctx context.Context, customerID uuid.UUID, line ProductLine) (bool, error)
}
