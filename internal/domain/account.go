package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a borrower account in the domain layer.
// An account owns exactly one current AccountLimit and an append-only
// history of CreditLimitGeneration records.
type Account struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	CreatedAt  time.Time
}

// AccountLimit is the mutable projection of an account's current credit limit.
// It is created once with zero limits alongside the account and mutated only
// inside a row-locked transaction.
type AccountLimit struct {
	AccountID      uuid.UUID
	MaxLimit       decimal.Decimal
	SetLimit       decimal.Decimal
	AvailableLimit decimal.Decimal
	UsedLimit      decimal.Decimal
}

// Validate ensures the limit projection adheres to the ledger invariants:
// available_limit + used_limit == set_limit, and max_limit >= set_limit.
func (l *AccountLimit) Validate() error {
	if !l.AvailableLimit.Add(l.UsedLimit).Equal(l.SetLimit) {
		return errors.New("available_limit plus used_limit must equal set_limit")
	}
	if l.MaxLimit.LessThan(l.SetLimit) {
		return errors.New("max_limit must be greater than or equal to set_limit")
	}
	if l.UsedLimit.IsNegative() {
		return errors.New("used_limit cannot be negative")
	}
	return nil
}

// AccountProperty carries per-customer underwriting flags. It is read-only
// to the limit engine.
type AccountProperty struct {
	CustomerID    uuid.UUID
	PGood         decimal.Decimal
	IsEntryLevel  bool
	IsPremiumArea bool
	IsSalaried    bool
	IsProvenRepeat bool
}
