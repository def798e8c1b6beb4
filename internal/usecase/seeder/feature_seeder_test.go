package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danaflex/limitengine-backend/internal/adapter/provider/memory"
	"github.com/danaflex/limitengine-backend/internal/domain"
)

func TestSeed_InstallsInactiveDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFeatureProvider()
	seeder := NewFeatureSeeder(store)

	require.NoError(t, seeder.Seed(ctx))

	for _, name := range []string{
		domain.FeatureAlternativeDataBypass,
		domain.FeatureBankStatementBypass,
		domain.FeatureBankStatementExperiment,
		domain.FeatureAffordabilityFloor,
		domain.FeatureBehavioralRecalc,
		domain.FeatureLimitAdjustment,
	} {
		snapshot, err := store.Snapshot(ctx, name)
		require.NoError(t, err, "feature %s must be seeded", name)
		assert.False(t, snapshot.Active, "seeded default for %s must be inactive", name)
	}
}

func TestSeed_DoesNotOverwriteExistingConfiguration(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFeatureProvider()
	store.Seed(domain.FeatureSnapshot{
		Name:       domain.FeatureBehavioralRecalc,
		Active:     true,
		Parameters: []byte(`{"recalc_active": true, "score_window_days": 14}`),
	})
	seeder := NewFeatureSeeder(store)

	require.NoError(t, seeder.Seed(ctx))

	snapshot, err := store.Snapshot(ctx, domain.FeatureBehavioralRecalc)
	require.NoError(t, err)
	assert.True(t, snapshot.Active)

	var params domain.BehavioralRecalcParams
	require.NoError(t, snapshot.DecodeParams(&params))
	assert.Equal(t, 14, params.ScoreWindowDays)
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFeatureProvider()
	seeder := NewFeatureSeeder(store)

	require.NoError(t, seeder.Seed(ctx))
	require.NoError(t, seeder.Seed(ctx))

	snapshot, err := store.Snapshot(ctx, domain.FeatureBehavioralRecalc)
	require.NoError(t, err)

	var params domain.BehavioralRecalcParams
	require.NoError(t, snapshot.DecodeParams(&params))
	assert.Equal(t, 30, params.ScoreWindowDays)
}
