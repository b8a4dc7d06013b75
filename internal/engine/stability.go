package engine

import (
	"math"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

const (
	maxStabilitySamples = 60
	stabilityInterval   = 5.0 // seconds between samples before capping

	rampUpEnd   = 0.1
	steadyEnd   = 0.8
	sampleNoise = 0.04

	pulsedStability     = 0.98
	continuousStability = 0.85
)

// phaseSample is the deterministic part of one stability sample
type phaseSample struct {
	densityMultiplier float64
	uniformityDelta   float64
	temperature       float64
}

// processPhase evaluates the ramp-up, steady-state and stabilization model at normalized time t
func processPhase(t, agingInstability float64) phaseSample {
	switch {
	case t < rampUpEnd:
		m := 1 - math.Exp(-30*t)
		return phaseSample{
			densityMultiplier: m,
			uniformityDelta:   -5 * (1 - m),
			temperature:       0.3 + (t/rampUpEnd)*0.4,
		}
	case t < steadyEnd:
		progress := (t - rampUpEnd) / (steadyEnd - rampUpEnd)
		drift := agingInstability * math.Sin(6*math.Pi*progress)
		return phaseSample{
			densityMultiplier: 1 + drift,
			uniformityDelta:   -20 * math.Abs(drift),
			temperature:       0.7 + progress*0.2,
		}
	default:
		progress := (t - steadyEnd) / (1 - steadyEnd)
		return phaseSample{
			densityMultiplier: 1 - 0.5*agingInstability,
			uniformityDelta:   -5 * agingInstability,
			temperature:       0.85 + progress*0.1,
		}
	}
}

// StabilitySampleCount is the number of samples generated for a process time
func StabilitySampleCount(processTime float64) int {
	n := int(math.Floor(processTime/stabilityInterval)) + 1
	return min(n, maxStabilitySamples)
}

// GenerateStability simulates density, uniformity and temperature over the process window.
// The reference density is the center cell of the mid-height layer.
func GenerateStability(p models.ProcessParameters, d models.RadicalDistribution, baseUniformity float64, src Source) []models.StabilityDataPoint {
	n := StabilitySampleCount(p.ProcessTime)
	dims := d.Dimensions
	baseDensity := d.Grid[dims.Z/2][dims.Y/2][dims.X/2]

	agingInstability := (p.ChamberRFHours / ratedRFHours) * 0.15
	pulseStability := continuousStability
	if p.PulseEnabled {
		pulseStability = pulsedStability
	}

	points := make([]models.StabilityDataPoint, n)
	for i := range points {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}

		phase := processPhase(t, agingInstability)
		noise := uniform(src, -0.5, 0.5) * sampleNoise

		points[i] = models.StabilityDataPoint{
			Time:           roundTo(t*p.ProcessTime, 2),
			RadicalDensity: roundTo(baseDensity*phase.densityMultiplier*pulseStability*(1+noise), 4),
			Uniformity:     roundTo(clamp(baseUniformity+phase.uniformityDelta+noise*10, 50, 100), 4),
			Temperature:    roundTo(clamp(phase.temperature, 0, 1), 4),
		}
	}
	return points
}
