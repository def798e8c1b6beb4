package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// ScoreProvider serves the latest behavioral score per customer from memory.
type ScoreProvider struct {
	mu     sync.RWMutex
	scores map[uuid.UUID]domain.BehavioralScore
}

func NewScoreProvider() *ScoreProvider {
	return &ScoreProvider{
		scores: make(map[uuid.UUID]domain.BehavioralScore),
	}
}

// Seed installs or replaces a customer's score. Only the newest score by
// partition date is kept.
func (p *ScoreProvider) Seed(score domain.BehavioralScore) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, exists := p.scores[score.CustomerID]
	if exists && existing.PartitionDate.After(score.PartitionDate) {
		return
	}
	p.scores[score.CustomerID] = score
}

// LatestScore returns a copy of the customer's newest score.
func (p *ScoreProvider) LatestScore(ctx context.Context, customerID uuid.UUID) (*domain.BehavioralScore, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	score, exists := p.scores[customerID]
	if !exists {
		return nil, fmt.Errorf("behavioral score for customer %s: %w", customerID, domain.ErrNotFound)
	}
	return &score, nil
}
