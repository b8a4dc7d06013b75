package engine

import (
	"math"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// Economics holds the batch cost model
type Economics struct {
	BatchSize     int
	WaferCost     float64 // USD per wafer
	SellingPrice  float64 // USD per good wafer
	ScrapRecovery float64 // fraction of wafer cost recovered from scrapped wafers
	OptimalYield  float64 // % yield of the reference process used for loss estimates
}

// DefaultEconomics returns the standard 25-wafer batch economics
func DefaultEconomics() Economics {
	return Economics{
		BatchSize:     25,
		WaferCost:     150,
		SellingPrice:  200,
		ScrapRecovery: 0.5,
		OptimalYield:  98,
	}
}

// batchProfit is revenue from good wafers minus batch cost, crediting partial scrap recovery
func (e Economics) batchProfit(goodWafers int) float64 {
	scrapped := e.BatchSize - goodWafers
	return float64(goodWafers)*e.SellingPrice -
		float64(e.BatchSize)*e.WaferCost -
		float64(scrapped)*e.WaferCost*e.ScrapRecovery
}

func (e Economics) goodWafers(yieldRate float64) int {
	return int(math.Floor(float64(e.BatchSize) * yieldRate / 100))
}

// CalculateROI converts predicted quality into batch yield and profit projections
func CalculateROI(q models.QualityMetrics, status models.Status, e Economics) models.RoiMetrics {
	yieldRate := q.EtchUniformity * 0.8
	switch q.DefectRisk {
	case models.DefectRiskMedium:
		yieldRate -= 10
	case models.DefectRiskHigh:
		yieldRate -= 25
	}
	yieldRate -= math.Abs(q.CDShift) * 2
	yieldRate = clamp(yieldRate, 30, 99)

	profit := e.batchProfit(e.goodWafers(yieldRate))
	shortfall := math.Max(0, e.batchProfit(e.goodWafers(e.OptimalYield))-profit)

	var recoverable float64
	switch status {
	case models.StatusWarning:
		recoverable = 0.5
	case models.StatusDanger:
		recoverable = 1
	}

	return models.RoiMetrics{
		EstimatedBatchProfit:   roundTo(profit, 2),
		PotentialLossReduction: roundTo(shortfall*recoverable, 2),
		WaferCost:              e.WaferCost,
		BatchSize:              e.BatchSize,
		YieldRate:              roundTo(yieldRate, 2),
	}
}
