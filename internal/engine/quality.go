package engine

import (
	"math"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// Quality thresholds
const (
	// centerHeavyRatio is where center-peaked distributions start degrading super-linearly
	centerHeavyRatio = 1.5
	edgeHeavyRatio   = 0.7

	minUniformity = 50.0
	maxUniformity = 99.5

	safeUniformity    = 94.0
	safeCDShift       = 2.0
	warningUniformity = 88.0
	warningCDShift    = 4.0

	mediumRiskScore = 25.0
	highRiskScore   = 55.0
)

// PredictQuality maps the field descriptors and the raw recipe to etch quality metrics
func PredictQuality(p models.ProcessParameters, d models.RadicalDistribution, src Source) models.QualityMetrics {
	cer := d.CenterEdgeRatio
	ratioDeviation := math.Abs(cer - 1)
	gradientDeviation := math.Abs(d.TopBottomGradient - 1)

	uniformity := 100 - ratioDeviation*15 - gradientDeviation*10
	if cer > centerHeavyRatio {
		excess := cer - centerHeavyRatio
		uniformity *= math.Exp(-2.5 * excess * excess)
		uniformity -= excess * 25
	}
	if cer < edgeHeavyRatio {
		uniformity -= (edgeHeavyRatio - cer) * 30
	}
	if p.PulseEnabled {
		uniformity += 2
	}
	if p.Pressure > 60 {
		uniformity -= (p.Pressure - 60) * 0.1
	}
	uniformity = clamp(uniformity, minUniformity, maxUniformity)

	cdShift := (cer-1)*2 + (d.HighEnergyFraction-0.25)*3
	if cer > centerHeavyRatio {
		cdShift += (cer - centerHeavyRatio) * 4
	}
	cdShift += uniform(src, -0.25, 0.25)

	score := ratioDeviation*30 +
		gradientDeviation*20 +
		math.Max(0, d.HighEnergyFraction-0.35)*50 +
		math.Max(0, p.RFPower-1500)/50 +
		math.Max(0, 10-p.Pressure)*2
	if cer > centerHeavyRatio {
		score += (cer - centerHeavyRatio) * 40
	}
	score += uniform(src, -2.5, 2.5)
	score = roundTo(clamp(score, 0, 100), 2)

	return models.QualityMetrics{
		EtchUniformity:  roundTo(uniformity, 2),
		CDShift:         roundTo(cdShift, 2),
		DefectRisk:      ClassifyRisk(score),
		DefectRiskScore: score,
	}
}

// ClassifyRisk buckets a defect risk score
func ClassifyRisk(score float64) models.DefectRisk {
	switch {
	case score < mediumRiskScore:
		return models.DefectRiskLow
	case score < highRiskScore:
		return models.DefectRiskMedium
	default:
		return models.DefectRiskHigh
	}
}

// ClassifyStatus applies the safe and warning windows in order; anything else is danger
func ClassifyStatus(q models.QualityMetrics) models.Status {
	cd := math.Abs(q.CDShift)
	switch {
	case q.EtchUniformity >= safeUniformity && cd <= safeCDShift && q.DefectRisk == models.DefectRiskLow:
		return models.StatusSafe
	case q.EtchUniformity >= warningUniformity && cd <= warningCDShift && q.DefectRisk != models.DefectRiskHigh:
		return models.StatusWarning
	default:
		return models.StatusDanger
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
