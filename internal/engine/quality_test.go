package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// safeRecipe is a low-power pulsed recipe whose field is nearly flat
func safeRecipe() models.ProcessParameters {
	return models.ProcessParameters{
		RFPower:        200,
		Pressure:       50,
		GasFlowCF4:     80,
		GasFlowO2:      20,
		PulseEnabled:   true,
		PulseDutyCycle: 50,
		PulseFrequency: 1000,
		ProcessTime:    120,
	}
}

// marginalRecipe lands just under the safe uniformity window
func marginalRecipe() models.ProcessParameters {
	return models.ProcessParameters{
		RFPower:     100,
		Pressure:    50,
		GasFlowCF4:  200,
		GasFlowO2:   20,
		ProcessTime: 120,
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		quality models.QualityMetrics
		want    models.Status
	}{
		{"safe", models.QualityMetrics{EtchUniformity: 95, CDShift: 0, DefectRisk: models.DefectRiskLow}, models.StatusSafe},
		{"safe at bounds", models.QualityMetrics{EtchUniformity: 94, CDShift: -2, DefectRisk: models.DefectRiskLow}, models.StatusSafe},
		{"warning", models.QualityMetrics{EtchUniformity: 90, CDShift: 3, DefectRisk: models.DefectRiskMedium}, models.StatusWarning},
		{"warning from risk", models.QualityMetrics{EtchUniformity: 99, CDShift: 0, DefectRisk: models.DefectRiskMedium}, models.StatusWarning},
		{"warning from cd", models.QualityMetrics{EtchUniformity: 99, CDShift: 2.5, DefectRisk: models.DefectRiskLow}, models.StatusWarning},
		{"danger low uniformity", models.QualityMetrics{EtchUniformity: 80, CDShift: 0, DefectRisk: models.DefectRiskLow}, models.StatusDanger},
		{"danger high risk", models.QualityMetrics{EtchUniformity: 99, CDShift: 0, DefectRisk: models.DefectRiskHigh}, models.StatusDanger},
		{"danger cd", models.QualityMetrics{EtchUniformity: 99, CDShift: -4.5, DefectRisk: models.DefectRiskLow}, models.StatusDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.quality))
		})
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, models.DefectRiskLow, ClassifyRisk(0))
	assert.Equal(t, models.DefectRiskLow, ClassifyRisk(24.99))
	assert.Equal(t, models.DefectRiskMedium, ClassifyRisk(25))
	assert.Equal(t, models.DefectRiskMedium, ClassifyRisk(54.99))
	assert.Equal(t, models.DefectRiskHigh, ClassifyRisk(55))
	assert.Equal(t, models.DefectRiskHigh, ClassifyRisk(100))
}

func TestPredictQualityFormula(t *testing.T) {
	p := baselineRecipe()
	d := models.RadicalDistribution{
		CenterEdgeRatio:    1.2,
		TopBottomGradient:  1.1,
		HighEnergyFraction: 0.25,
	}

	q := PredictQuality(p, d, ZeroNoise)

	// 100 - 0.2*15 - 0.1*10
	assert.InDelta(t, 96.0, q.EtchUniformity, 1e-9)
	// 0.2*2 + 0
	assert.InDelta(t, 0.4, q.CDShift, 1e-9)
	// 0.2*30 + 0.1*20
	assert.InDelta(t, 8.0, q.DefectRiskScore, 1e-9)
	assert.Equal(t, models.DefectRiskLow, q.DefectRisk)
}

func TestPredictQualityCenterHeavyPenalty(t *testing.T) {
	p := baselineRecipe()
	d := models.RadicalDistribution{CenterEdgeRatio: 1.7, TopBottomGradient: 1, HighEnergyFraction: 0.25}

	q := PredictQuality(p, d, ZeroNoise)

	linear := 100 - 0.7*15
	penalised := linear*math.Exp(-2.5*0.2*0.2) - 0.2*25
	assert.InDelta(t, roundTo(penalised, 2), q.EtchUniformity, 1e-9)
	assert.InDelta(t, 0.7*2+0.2*4, q.CDShift, 1e-9)
	assert.InDelta(t, 0.7*30+0.2*40, q.DefectRiskScore, 1e-9)

	// just below the threshold there is no extra penalty
	below := PredictQuality(p, models.RadicalDistribution{CenterEdgeRatio: 1.5, TopBottomGradient: 1, HighEnergyFraction: 0.25}, ZeroNoise)
	assert.InDelta(t, 92.5, below.EtchUniformity, 1e-9)
}

func TestPredictQualityAdjustments(t *testing.T) {
	flat := models.RadicalDistribution{CenterEdgeRatio: 1, TopBottomGradient: 1, HighEnergyFraction: 0.25}

	edgeHeavy := PredictQuality(baselineRecipe(), models.RadicalDistribution{CenterEdgeRatio: 0.6, TopBottomGradient: 1, HighEnergyFraction: 0.25}, ZeroNoise)
	assert.InDelta(t, 100-0.4*15-0.1*30, edgeHeavy.EtchUniformity, 1e-9)

	highPressure := baselineRecipe()
	highPressure.Pressure = 80
	q := PredictQuality(highPressure, flat, ZeroNoise)
	assert.InDelta(t, 98.0, q.EtchUniformity, 1e-9)

	// pulse bonus is capped by the upper clamp
	pulsed := baselineRecipe()
	pulsed.PulseEnabled = true
	q = PredictQuality(pulsed, flat, ZeroNoise)
	assert.Equal(t, 99.5, q.EtchUniformity)

	lowPressure := baselineRecipe()
	lowPressure.Pressure = 4
	q = PredictQuality(lowPressure, flat, ZeroNoise)
	assert.InDelta(t, 12.0, q.DefectRiskScore, 1e-9)
}

func TestPredictQualityClamps(t *testing.T) {
	p := baselineRecipe()
	p.RFPower = 2000
	p.Pressure = 1
	d := models.RadicalDistribution{CenterEdgeRatio: 4, TopBottomGradient: 3, HighEnergyFraction: 0.6}

	for seed := uint64(0); seed < 20; seed++ {
		q := PredictQuality(p, d, NewSeededSource(seed))
		assert.Equal(t, 50.0, q.EtchUniformity)
		assert.Equal(t, 100.0, q.DefectRiskScore)
		assert.Equal(t, models.DefectRiskHigh, q.DefectRisk)
	}
}

func TestPredictQualityNoiseBounds(t *testing.T) {
	p := baselineRecipe()
	d := models.RadicalDistribution{CenterEdgeRatio: 1.2, TopBottomGradient: 1.1, HighEnergyFraction: 0.25}

	for seed := uint64(0); seed < 50; seed++ {
		q := PredictQuality(p, d, NewSeededSource(seed))
		assert.InDelta(t, 0.4, q.CDShift, 0.25+0.005)
		assert.InDelta(t, 8.0, q.DefectRiskScore, 2.5+0.005)
	}
}

func TestPredictQualityRecipes(t *testing.T) {
	safe := safeRecipe()
	for seed := uint64(0); seed < 10; seed++ {
		src := NewSeededSource(seed)
		d := simulate(safe, src)
		q := PredictQuality(safe, d, src)
		assert.Equal(t, models.StatusSafe, ClassifyStatus(q), "seed %d", seed)
	}

	marginal := marginalRecipe()
	d := simulate(marginal, ZeroNoise)
	q := PredictQuality(marginal, d, ZeroNoise)
	assert.InDelta(t, 93.1, q.EtchUniformity, 0.01)
	assert.Equal(t, models.DefectRiskLow, q.DefectRisk)
	assert.Equal(t, models.StatusWarning, ClassifyStatus(q))
}
