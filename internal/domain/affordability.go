package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AffordabilityHistory is the latest affordability signal for an application.
// When IsAlternative is true the value came from an alternative-data
// assessment rather than the standard income model, and carries the reason
// the assessment was swapped.
type AffordabilityHistory struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Value         decimal.Decimal // estimated disposable monthly payment capacity
	IsAlternative bool
	ChangeReason  string
	CreatedAt     time.Time
}
