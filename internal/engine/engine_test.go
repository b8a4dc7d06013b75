package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

func seededEngine(seed uint64) *Engine {
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return New(Config{
		NewSource: func() Source { return NewSeededSource(seed) },
		Now:       func() time.Time { return fixed },
		NewID:     func() string { return "run-1" },
	})
}

func assertResultInvariants(t *testing.T, r *models.PredictionResult) {
	t.Helper()

	dims := r.RadicalDistribution.Dimensions
	require.Len(t, r.RadicalDistribution.Grid, dims.Z)
	assert.Equal(t, r.RadicalDistribution.Grid[dims.Z/2], r.RadicalDistribution.Slice2D)

	q := r.QualityMetrics
	assert.GreaterOrEqual(t, q.EtchUniformity, 50.0)
	assert.LessOrEqual(t, q.EtchUniformity, 99.5)
	assert.GreaterOrEqual(t, q.DefectRiskScore, 0.0)
	assert.LessOrEqual(t, q.DefectRiskScore, 100.0)
	assert.Equal(t, ClassifyRisk(q.DefectRiskScore), q.DefectRisk)
	assert.Equal(t, ClassifyStatus(q), r.Status)

	assert.LessOrEqual(t, len(r.Recommendations), MaxRecommendations)
	assert.Equal(t, r.Status == models.StatusSafe, len(r.Recommendations) == 0)

	require.NotNil(t, r.RoiMetrics)
	assert.GreaterOrEqual(t, r.RoiMetrics.YieldRate, 30.0)
	assert.LessOrEqual(t, r.RoiMetrics.YieldRate, 99.0)

	assert.Len(t, r.StabilityData, StabilitySampleCount(r.Parameters.ProcessTime))
}

func TestPredictAgedHighPowerIsDanger(t *testing.T) {
	e := seededEngine(3)

	r, err := e.Predict(agedHighPowerRecipe())
	require.NoError(t, err)

	assert.Equal(t, models.StatusDanger, r.Status)
	assert.Equal(t, 50.0, r.QualityMetrics.EtchUniformity)
	assert.Greater(t, r.RadicalDistribution.CenterEdgeRatio, 1.5)

	require.NotEmpty(t, r.Recommendations)
	assert.Equal(t, "pressure", r.Recommendations[0].Parameter)
	assert.Equal(t, 15.0, r.Recommendations[0].RecommendedValue)
	assert.Equal(t, models.PriorityHigh, r.Recommendations[0].Priority)
	assert.Equal(t, "rfPower", r.Recommendations[1].Parameter)
	assert.Equal(t, 1620.0, r.Recommendations[1].RecommendedValue)

	assert.Equal(t, 4675.0, r.RoiMetrics.PotentialLossReduction)
	assertResultInvariants(t, r)
}

func TestPredictSafeRecipe(t *testing.T) {
	r, err := seededEngine(11).Predict(safeRecipe())
	require.NoError(t, err)

	assert.Equal(t, models.StatusSafe, r.Status)
	assert.Empty(t, r.Recommendations)
	assert.Equal(t, 0.0, r.RoiMetrics.PotentialLossReduction)
	assertResultInvariants(t, r)
}

func TestPredictRejectsInvalidParameters(t *testing.T) {
	p := baselineRecipe()
	p.RFPower = 50
	p.GasFlowO2 = 500

	r, err := New(DefaultConfig()).Predict(p)

	assert.Nil(t, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidParameters))

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "rfPower", verr.Fields[0].Field)
	assert.Equal(t, "gasFlowO2", verr.Fields[1].Field)
}

func TestPredictIsReproducibleWithSeed(t *testing.T) {
	a, err := seededEngine(5).Predict(baselineRecipe())
	require.NoError(t, err)
	b, err := seededEngine(5).Predict(baselineRecipe())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "run-1", a.ID)
	assert.Equal(t, 2026, a.CreatedAt.Year())
}

func TestPredictDefaultsAssignIdentity(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)

	r, err := New(Config{}).Predict(baselineRecipe())
	require.NoError(t, err)

	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.True(t, r.CreatedAt.After(before))
	assert.Equal(t, DefaultGrid, r.RadicalDistribution.Dimensions)
	assert.Equal(t, DefaultEconomics().BatchSize, r.RoiMetrics.BatchSize)
}

func TestPredictCustomGrid(t *testing.T) {
	grid := models.GridDimensions{X: 8, Y: 6, Z: 4}
	r, err := New(Config{Grid: grid, NewSource: func() Source { return ZeroNoise }}).Predict(baselineRecipe())
	require.NoError(t, err)

	assert.Equal(t, grid, r.RadicalDistribution.Dimensions)
	require.Len(t, r.RadicalDistribution.Slice2D, 6)
	assert.Len(t, r.RadicalDistribution.Slice2D[0], 8)
	assertResultInvariants(t, r)
}

func TestPredictConcurrent(t *testing.T) {
	e := New(DefaultConfig())
	recipes := []models.ProcessParameters{baselineRecipe(), agedHighPowerRecipe(), safeRecipe(), marginalRecipe()}

	var wg sync.WaitGroup
	results := make([]*models.PredictionResult, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Predict(recipes[i%len(recipes)])
		}(i)
	}
	wg.Wait()

	ids := make(map[string]bool)
	for i, r := range results {
		require.NoError(t, errs[i])
		assertResultInvariants(t, r)
		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		ids[r.ID] = true
	}
}
