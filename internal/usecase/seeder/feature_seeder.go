package seeder

import (
	"context"
	"encoding/json"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// FeatureStore is a feature provider whose configuration can be installed at
// runtime.
type FeatureStore interface {
	domain.FeatureProvider
	Seed(snapshot domain.FeatureSnapshot)
}

// FeatureSeeder ensures every feature the engine consults has an explicit
// configuration row. Seeded defaults are inactive, so "missing" and
// "explicitly disabled" stay distinguishable downstream.
type FeatureSeeder struct {
	store FeatureStore
}

// NewFeatureSeeder creates a new FeatureSeeder instance.
func NewFeatureSeeder(store FeatureStore) *FeatureSeeder {
	return &FeatureSeeder{store: store}
}

// Seed installs an inactive default for every known feature that has no
// configuration yet. Existing configuration is never overwritten.
func (s *FeatureSeeder) Seed(ctx context.Context) error {
	defaults := []domain.FeatureSnapshot{
		{Name: domain.FeatureAlternativeDataBypass},
		{Name: domain.FeatureBankStatementBypass},
		{Name: domain.FeatureBankStatementExperiment},
		{Name: domain.FeatureAffordabilityFloor},
		{Name: domain.FeatureBehavioralRecalc, Parameters: mustMarshal(domain.BehavioralRecalcParams{ScoreWindowDays: 30})},
		{Name: domain.FeatureLimitAdjustment},
	}

	for _, snapshot := range defaults {
		_, err := s.store.Snapshot(ctx, snapshot.Name)
		if err == nil {
			continue
		}
		s.store.Seed(snapshot)
	}

	return nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
