package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// IncomeVerifier answers the processed-income gate from a seeded map.
// Applications never seeded report non-positive income.
type IncomeVerifier struct {
	mu       sync.RWMutex
	positive map[uuid.UUID]bool
}

func NewIncomeVerifier() *IncomeVerifier {
	return &IncomeVerifier{
		positive: make(map[uuid.UUID]bool),
	}
}

// Seed records whether an application's processed income is positive.
func (v *IncomeVerifier) Seed(applicationID uuid.UUID, positive bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.positive[applicationID] = positive
}

func (v *IncomeVerifier) ProcessedIncomePositive(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.positive[applicationID], nil
}
