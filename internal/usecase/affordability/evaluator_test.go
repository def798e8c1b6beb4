package affordability

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/danaflex/limitengine-backend/internal/domain"
)

// MockFeatureProvider is a mock implementation of FeatureProvider for testing
type MockFeatureProvider struct {
	mock.Mock
}

func (m *MockFeatureProvider) Snapshot(ctx context.Context, name string) (*domain.FeatureSnapshot, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeatureSnapshot), args.Error(1)
}

func floorSnapshot(t *testing.T, primary, secondary int64, useSecondary bool) *domain.FeatureSnapshot {
	t.Helper()
	params, err := json.Marshal(map[string]any{
		"primary_floor":   primary,
		"secondary_floor": secondary,
		"use_secondary":   useSecondary,
	})
	require.NoError(t, err)
	return &domain.FeatureSnapshot{
		Name:       domain.FeatureAffordabilityFloor,
		Active:     true,
		Parameters: params,
	}
}

func TestEvaluate_NonPositiveIncomeRejects(t *testing.T) {
	ctx := context.Background()
	evaluator := NewEvaluator(new(MockFeatureProvider))

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(2_000_000)}
	eval, err := evaluator.Evaluate(ctx, history, false)

	require.NoError(t, err)
	assert.True(t, eval.Rejected)
	assert.Equal(t, RejectReasonNonPositiveIncome, eval.RejectReason)
}

func TestEvaluate_StandardAssessmentPassesThrough(t *testing.T) {
	// Non-alternative assessments skip the floor entirely.
	ctx := context.Background()
	features := new(MockFeatureProvider)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(150_000), IsAlternative: false}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.False(t, eval.Rejected)
	assert.True(t, eval.Value.Equal(history.Value))
	features.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
}

func TestEvaluate_AlternativeBelowPrimaryFloorRejects(t *testing.T) {
	ctx := context.Background()
	features := new(MockFeatureProvider)
	features.On("Snapshot", mock.Anything, domain.FeatureAffordabilityFloor).
		Return(floorSnapshot(t, 500_000, 750_000, false), nil)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(400_000), IsAlternative: true}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.True(t, eval.Rejected)
	assert.Equal(t, RejectReasonBelowFloor, eval.RejectReason)
}

func TestEvaluate_SecondaryFloorSelectedByParameter(t *testing.T) {
	// 600,000 clears the primary floor (500,000) but not the secondary
	// (750,000); use_secondary makes the secondary authoritative.
	ctx := context.Background()
	features := new(MockFeatureProvider)
	features.On("Snapshot", mock.Anything, domain.FeatureAffordabilityFloor).
		Return(floorSnapshot(t, 500_000, 750_000, true), nil)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(600_000), IsAlternative: true}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.True(t, eval.Rejected)
}

func TestEvaluate_AlternativeAtFloorPasses(t *testing.T) {
	ctx := context.Background()
	features := new(MockFeatureProvider)
	features.On("Snapshot", mock.Anything, domain.FeatureAffordabilityFloor).
		Return(floorSnapshot(t, 500_000, 750_000, false), nil)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(500_000), IsAlternative: true}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.False(t, eval.Rejected)
	assert.True(t, eval.Value.Equal(history.Value))
}

func TestEvaluate_MissingFloorConfigurationPasses(t *testing.T) {
	// No feature row at all: alternative assessments pass through.
	ctx := context.Background()
	features := new(MockFeatureProvider)
	features.On("Snapshot", mock.Anything, domain.FeatureAffordabilityFloor).Return(nil, domain.ErrNotFound)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(100_000), IsAlternative: true}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.False(t, eval.Rejected)
}

func TestEvaluate_InactiveFloorFeaturePasses(t *testing.T) {
	ctx := context.Background()
	features := new(MockFeatureProvider)
	snapshot := floorSnapshot(t, 500_000, 750_000, false)
	snapshot.Active = false
	features.On("Snapshot", mock.Anything, domain.FeatureAffordabilityFloor).Return(snapshot, nil)
	evaluator := NewEvaluator(features)

	history := &domain.AffordabilityHistory{Value: decimal.NewFromInt(100_000), IsAlternative: true}
	eval, err := evaluator.Evaluate(ctx, history, true)

	require.NoError(t, err)
	assert.False(t, eval.Rejected)
}
