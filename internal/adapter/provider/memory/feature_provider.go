package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// FeatureProvider serves feature configuration from an in-memory map.
type FeatureProvider struct {
	mu       sync.RWMutex
	features map[string]domain.FeatureSnapshot
}

func NewFeatureProvider() *FeatureProvider {
	return &FeatureProvider{
		features: make(map[string]domain.FeatureSnapshot),
	}
}

// Seed installs or replaces a feature snapshot.
func (p *FeatureProvider) Seed(snapshot domain.FeatureSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.features[snapshot.Name] = snapshot
}

// Snapshot returns a copy of the named feature's configuration so callers
// within one computation pass see a stable view.
func (p *FeatureProvider) Snapshot(ctx context.Context, name string) (*domain.FeatureSnapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot, exists := p.features[name]
	if !exists {
		return nil, fmt.Errorf("feature %s: %w", name, domain.ErrNotFound)
	}
	return &snapshot, nil
}
