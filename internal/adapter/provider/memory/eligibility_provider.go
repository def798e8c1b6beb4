package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// EligibilityProvider serves per-customer eligibility records from an
// in-memory map keyed by customer and check name.
type EligibilityProvider struct {
	mu     sync.RWMutex
	checks map[uuid.UUID]map[string]domain.EligibilityCheck
}

func NewEligibilityProvider() *EligibilityProvider {
	return &EligibilityProvider{
		checks: make(map[uuid.UUID]map[string]domain.EligibilityCheck),
	}
}

// Seed installs or replaces a customer's eligibility record.
func (p *EligibilityProvider) Seed(customerID uuid.UUID, check domain.EligibilityCheck) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.checks[customerID] == nil {
		p.checks[customerID] = make(map[string]domain.EligibilityCheck)
	}
	p.checks[customerID][check.Name] = check
}

// Check returns a copy of the named record for a customer.
func (p *EligibilityProvider) Check(ctx context.Context, customerID uuid.UUID, name string) (*domain.EligibilityCheck, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	check, exists := p.checks[customerID][name]
	if !exists {
		return nil, fmt.Errorf("eligibility check %s for customer %s: %w", name, customerID, domain.ErrNotFound)
	}
	return &check, nil
}
