package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the status a loan transitions into.
type LoanStatus string

const (
	LoanStatusDraft     LoanStatus = "DRAFT"
	LoanStatusActive    LoanStatus = "ACTIVE" // disbursed and outstanding
	LoanStatusPaidOff   LoanStatus = "PAID_OFF"
	LoanStatusSoldOff   LoanStatus = "SOLD_OFF"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// IncreasesAvailableLimit reports whether entering the status releases the
// loan amount from used_limit back to available_limit.
func (s LoanStatus) IncreasesAvailableLimit() bool {
	return s == LoanStatusPaidOff || s == LoanStatusSoldOff
}

// DecreasesAvailableLimit reports whether entering the status consumes
// available_limit into used_limit.
func (s LoanStatus) DecreasesAvailableLimit() bool {
	return s == LoanStatusActive
}

// Loan represents a disbursed loan whose status transitions drive usage
// ledger bookkeeping.
type Loan struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	ApplicationID uuid.UUID
	Amount        decimal.Decimal
	Status        LoanStatus
	// EarlyReleaseAmount is the portion of used_limit already released back
	// before payoff. It is folded into the payoff release.
	EarlyReleaseAmount decimal.Decimal
}
