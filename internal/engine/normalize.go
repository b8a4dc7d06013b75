package engine

import "github.com/kartoza/plasma-dashboard/internal/models"

// Reference values used to make process parameters dimensionless
const (
	referencePower    = 1000.0
	referencePressure = 50.0
	referenceCF4      = 100.0
	referenceO2       = 50.0
	referenceAr       = 100.0
	ratedRFHours      = 500.0
)

// Factors are the dimensionless inputs of the field model
type Factors struct {
	Power    float64
	Pressure float64
	CF4      float64
	O2       float64
	Ar       float64

	// Aging amplifies wall loss (1.0 new chamber, 1.5 at rated hours)
	Aging float64
	// AgingEdgePenalty shrinks the pressure edge boost (1.0 new chamber, 0.7 at rated hours)
	AgingEdgePenalty float64
}

// Normalize derives the dimensionless factors from validated parameters.
// No clamping is applied; out-of-bound input must be rejected before this point.
func Normalize(p models.ProcessParameters) Factors {
	wear := p.ChamberRFHours / ratedRFHours
	return Factors{
		Power:            p.RFPower / referencePower,
		Pressure:         p.Pressure / referencePressure,
		CF4:              p.GasFlowCF4 / referenceCF4,
		O2:               p.GasFlowO2 / referenceO2,
		Ar:               p.GasFlowAr / referenceAr,
		Aging:            1 + wear*0.5,
		AgingEdgePenalty: 1 - wear*0.3,
	}
}
