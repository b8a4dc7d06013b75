package engine

import (
	"math"
	"sort"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// MaxRecommendations caps the list returned to the dashboard
const MaxRecommendations = 3

// ReasonCode identifies a recommendation message independently of its wording
type ReasonCode string

const (
	ReasonCenterHeavyPressure ReasonCode = "center_heavy.pressure"
	ReasonCenterHeavyPower    ReasonCode = "center_heavy.rf_power"
	ReasonCenterHeavyPulse    ReasonCode = "center_heavy.pulse"
	ReasonLowUniformityAr     ReasonCode = "low_uniformity.ar_flow"
	ReasonCDShiftPower        ReasonCode = "cd_shift.rf_power"
	ReasonCDShiftO2           ReasonCode = "cd_shift.o2_flow"
	ReasonDefectPressure      ReasonCode = "defect_risk.pressure"
	ReasonDefectCF4           ReasonCode = "defect_risk.cf4_flow"
	ReasonGradientAr          ReasonCode = "vertical_gradient.ar_flow"
	ReasonChamberClean        ReasonCode = "fallback.chamber_clean"
	ReasonReducePower         ReasonCode = "fallback.rf_power"
)

// Messages maps reason codes to display text for one locale
type Messages map[ReasonCode]string

// Text returns the message for code, or the code itself when no translation exists
func (m Messages) Text(code ReasonCode) string {
	if s, ok := m[code]; ok {
		return s
	}
	return string(code)
}

// DefaultMessages is the English message catalogue
var DefaultMessages = Messages{
	ReasonCenterHeavyPressure: "Radical density is strongly center-peaked. Raising pressure shortens the mean free path and flattens the radial profile.",
	ReasonCenterHeavyPower:    "Reducing RF power lowers the center-weighted generation rate and relaxes the center/edge imbalance.",
	ReasonCenterHeavyPulse:    "Enabling pulsed operation at 50% duty cycle lets radicals redistribute during the off phase.",
	ReasonLowUniformityAr:     "Etch uniformity is below target. More argon dilution improves radical transport toward the edge.",
	ReasonCDShiftPower:        "Critical dimension shift is large. Lower RF power reduces the high-energy ion fraction.",
	ReasonCDShiftO2:           "Adding oxygen improves sidewall passivation control and reduces CD drift.",
	ReasonDefectPressure:      "Defect risk is high. A moderately higher pressure softens ion bombardment.",
	ReasonDefectCF4:           "Lower CF4 flow reduces polymer deposition that seeds particle defects.",
	ReasonGradientAr:          "Large top-to-bottom density gradient. Extra argon improves vertical mixing.",
	ReasonChamberClean:        "Chamber wall condition degrades the process window. Schedule a wet clean.",
	ReasonReducePower:         "Process is outside the safe window. Back off RF power and re-evaluate.",
}

// recommender accumulates suggestions, keeping the first one per parameter
type recommender struct {
	msgs Messages
	seen map[string]bool
	recs []models.ParameterRecommendation
}

func (r *recommender) add(param string, current, recommended float64, code ReasonCode, priority models.Priority) {
	if r.seen[param] {
		return
	}
	r.seen[param] = true
	r.recs = append(r.recs, models.ParameterRecommendation{
		Parameter:        param,
		CurrentValue:     current,
		RecommendedValue: recommended,
		Reason:           r.msgs.Text(code),
		Priority:         priority,
	})
}

// Recommend returns at most MaxRecommendations parameter adjustments, highest priority first.
// The list is empty if and only if the status is safe.
func Recommend(p models.ProcessParameters, d models.RadicalDistribution, q models.QualityMetrics, status models.Status, msgs Messages) []models.ParameterRecommendation {
	if status == models.StatusSafe {
		return nil
	}
	if msgs == nil {
		msgs = DefaultMessages
	}
	r := &recommender{msgs: msgs, seen: make(map[string]bool)}

	if d.CenterEdgeRatio > centerHeavyRatio {
		if p.Pressure < 35 {
			r.add("pressure", p.Pressure, math.Min(p.Pressure+10, 35), ReasonCenterHeavyPressure, models.PriorityHigh)
		}
		if p.RFPower > 600 {
			r.add("rfPower", p.RFPower, math.Max(math.Round(p.RFPower*0.85/10)*10, 600), ReasonCenterHeavyPower, models.PriorityHigh)
		}
		if !p.PulseEnabled {
			// continuous wave is reported as a 100% duty cycle
			r.add("pulseDutyCycle", 100, 50, ReasonCenterHeavyPulse, models.PriorityMedium)
		}
	}

	if q.EtchUniformity < warningUniformity && p.GasFlowAr < 150 {
		r.add("gasFlowAr", p.GasFlowAr, math.Min(p.GasFlowAr+30, 150), ReasonLowUniformityAr, models.PriorityMedium)
	}

	if math.Abs(q.CDShift) > 3 {
		if p.RFPower > 500 {
			r.add("rfPower", p.RFPower, math.Max(p.RFPower-200, 500), ReasonCDShiftPower, models.PriorityHigh)
		}
		if p.GasFlowO2 < 60 {
			r.add("gasFlowO2", p.GasFlowO2, math.Min(p.GasFlowO2+10, 60), ReasonCDShiftO2, models.PriorityMedium)
		}
	}

	if q.DefectRisk == models.DefectRiskHigh {
		if p.Pressure < 30 {
			r.add("pressure", p.Pressure, math.Min(p.Pressure+5, 30), ReasonDefectPressure, models.PriorityHigh)
		}
		if p.GasFlowCF4 > 40 {
			r.add("gasFlowCF4", p.GasFlowCF4, math.Max(p.GasFlowCF4-20, 40), ReasonDefectCF4, models.PriorityMedium)
		}
	}

	if math.Abs(d.TopBottomGradient-1) > 0.3 && p.GasFlowAr < 150 {
		r.add("gasFlowAr", p.GasFlowAr, math.Min(p.GasFlowAr+20, 150), ReasonGradientAr, models.PriorityLow)
	}

	if len(r.recs) == 0 {
		if p.ChamberRFHours > 0 {
			r.add("chamberRfHours", p.ChamberRFHours, 0, ReasonChamberClean, models.PriorityLow)
		} else {
			r.add("rfPower", p.RFPower, math.Max(math.Round(p.RFPower*0.9), 100), ReasonReducePower, models.PriorityLow)
		}
	}

	recs := r.recs
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
