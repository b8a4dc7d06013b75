package models

import "time"

// Status is the tri-state safety verdict for a prediction
type Status string

const (
	StatusSafe    Status = "safe"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// ParseStatus accepts the three status names, case-sensitively
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusSafe, StatusWarning, StatusDanger:
		return Status(s), true
	}
	return "", false
}

// DefectRisk is the categorical defect risk level
type DefectRisk string

const (
	DefectRiskLow    DefectRisk = "low"
	DefectRiskMedium DefectRisk = "medium"
	DefectRiskHigh   DefectRisk = "high"
)

// Priority ranks a parameter recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities so that high sorts first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ProcessParameters is the recipe submitted for prediction.
// It is validated once on entry and never mutated afterwards.
type ProcessParameters struct {
	RFPower        float64 `json:"rfPower"`
	Pressure       float64 `json:"pressure"`
	GasFlowCF4     float64 `json:"gasFlowCF4"`
	GasFlowO2      float64 `json:"gasFlowO2"`
	GasFlowAr      float64 `json:"gasFlowAr"`
	PulseEnabled   bool    `json:"pulseEnabled"`
	PulseDutyCycle float64 `json:"pulseDutyCycle"`
	PulseFrequency float64 `json:"pulseFrequency"`
	ProcessTime    float64 `json:"processTime"`
	ChamberRFHours float64 `json:"chamberRfHours"`
}

// GridDimensions describes the size of the simulated density grid
type GridDimensions struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// RadicalDistribution is the simulated radical density field and its descriptors.
// Grid is indexed [height][depth][width]; Slice2D is the mid-height layer.
type RadicalDistribution struct {
	Grid       [][][]float64  `json:"grid"`
	Slice2D    [][]float64    `json:"slice2D"`
	Dimensions GridDimensions `json:"dimensions"`

	CenterEdgeRatio    float64 `json:"centerEdgeRatio"`
	TopBottomGradient  float64 `json:"topBottomGradient"`
	HighEnergyFraction float64 `json:"highEnergyFraction"`
	ResidenceTimeIndex float64 `json:"residenceTimeIndex"`
	VerticalUniformity float64 `json:"verticalUniformity"`
	WallLossFactor     float64 `json:"wallLossFactor"`
}

// QualityMetrics holds the predicted etch quality
type QualityMetrics struct {
	EtchUniformity  float64    `json:"etchUniformity"`
	CDShift         float64    `json:"cdShift"`
	DefectRisk      DefectRisk `json:"defectRisk"`
	DefectRiskScore float64    `json:"defectRiskScore"`
}

// StabilityDataPoint is one sample of the simulated process time series
type StabilityDataPoint struct {
	Time           float64 `json:"time"`
	RadicalDensity float64 `json:"radicalDensity"`
	Uniformity     float64 `json:"uniformity"`
	Temperature    float64 `json:"temperature"`
}

// ParameterRecommendation suggests a change to one process parameter
type ParameterRecommendation struct {
	Parameter        string   `json:"parameter"`
	CurrentValue     float64  `json:"currentValue"`
	RecommendedValue float64  `json:"recommendedValue"`
	Reason           string   `json:"reason"`
	Priority         Priority `json:"priority"`
}

// RoiMetrics projects the economics of one wafer batch
type RoiMetrics struct {
	EstimatedBatchProfit   float64 `json:"estimatedBatchProfit"`
	PotentialLossReduction float64 `json:"potentialLossReduction"`
	WaferCost              float64 `json:"waferCost"`
	BatchSize              int     `json:"batchSize"`
	YieldRate              float64 `json:"yieldRate"`
}

// PredictionResult is the complete output of one prediction
type PredictionResult struct {
	ID                  string                    `json:"id"`
	CreatedAt           time.Time                 `json:"createdAt"`
	Parameters          ProcessParameters         `json:"parameters"`
	RadicalDistribution RadicalDistribution       `json:"radicalDistribution"`
	QualityMetrics      QualityMetrics            `json:"qualityMetrics"`
	RoiMetrics          *RoiMetrics               `json:"roiMetrics,omitempty"`
	StabilityData       []StabilityDataPoint      `json:"stabilityData,omitempty"`
	Status              Status                    `json:"status"`
	Recommendations     []ParameterRecommendation `json:"recommendations,omitempty"`
}
