package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// BankStatementProvider aggregates seeded end-of-month balances per
// application.
type BankStatementProvider struct {
	mu       sync.RWMutex
	balances map[uuid.UUID][]decimal.Decimal
}

func NewBankStatementProvider() *BankStatementProvider {
	return &BankStatementProvider{
		balances: make(map[uuid.UUID][]decimal.Decimal),
	}
}

// Seed appends one end-of-month balance for an application, oldest first.
func (p *BankStatementProvider) Seed(applicationID uuid.UUID, balance decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.balances[applicationID] = append(p.balances[applicationID], balance)
}

// MonthlyBalances averages the trailing months of seeded balances.
func (p *BankStatementProvider) MonthlyBalances(ctx context.Context, applicationID uuid.UUID, months int) (*domain.BankStatementSummary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	balances, exists := p.balances[applicationID]
	if !exists || len(balances) == 0 || months <= 0 {
		return nil, fmt.Errorf("bank statement for application %s: %w", applicationID, domain.ErrNotFound)
	}

	if len(balances) > months {
		balances = balances[len(balances)-months:]
	}

	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(balances))))

	return &domain.BankStatementSummary{
		AvgEndOfMonthBalance: avg,
		AvgEndOfDayBalance:   avg,
	}, nil
}
