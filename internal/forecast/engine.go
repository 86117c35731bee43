package forecast

import (
	"math"

	"github.com/skucast/forecasting-service/internal/domain"
)

const (
	safetyStockRatio = 0.2
	minOrderRatio    = 0.1
)

// DecisionEngine turns an ensemble forecast plus stock position into a
// concrete reorder recommendation. All methods are pure.
type DecisionEngine struct{}

func NewDecisionEngine() *DecisionEngine { return &DecisionEngine{} }

// LeadTimeDemand is the expected demand while a reorder is in transit.
// Lead times beyond the forecast horizon extrapolate from the mean
// predicted day.
func (e *DecisionEngine) LeadTimeDemand(predictions []float64, leadTimeDays, horizonDays int) int {
	if leadTimeDays <= 0 {
		return 0
	}
	if leadTimeDays > horizonDays {
		return int(math.Round(meanOf(predictions) * float64(leadTimeDays)))
	}

	if leadTimeDays > len(predictions) {
		leadTimeDays = len(predictions)
	}
	var sum float64
	for _, p := range predictions[:leadTimeDays] {
		sum += p
	}
	return int(math.Round(sum))
}

// ReorderQuantity covers forecast demand, lead-time demand and a 20%
// safety buffer, enforcing a minimum order size when any order is
// placed at all.
func (e *DecisionEngine) ReorderQuantity(currentStock, forecastDemand, leadTimeDemand int) int {
	safetyStock := int(math.Round(safetyStockRatio * float64(forecastDemand)))
	totalDemand := forecastDemand + leadTimeDemand + safetyStock

	if currentStock >= totalDemand {
		return 0
	}

	reorderQty := totalDemand - currentStock
	minOrder := int(math.Round(minOrderRatio * float64(forecastDemand)))
	if minOrder < 1 {
		minOrder = 1
	}
	if reorderQty < minOrder {
		return minOrder
	}
	return reorderQty
}

// StockoutRisk walks the cumulative predicted demand and reports the
// first day (1-based) it overtakes the current stock.
func (e *DecisionEngine) StockoutRisk(currentStock int, predictions []float64) domain.StockoutRisk {
	var cumulative float64
	for day := 1; day <= len(predictions); day++ {
		cumulative += predictions[day-1]
		if cumulative > float64(currentStock) {
			d := day
			return domain.StockoutRisk{
				AtRisk:      true,
				StockoutDay: &d,
				DaysOfStock: day - 1,
			}
		}
	}
	return domain.StockoutRisk{DaysOfStock: len(predictions)}
}

// BuildItemForecast composes the demand arithmetic into the terminal
// per-item result.
func (e *DecisionEngine) BuildItemForecast(sku string, currentStock int, ensemble domain.ForecastResult,
	leadTimeDays, horizonDays int, qualityScore float64) domain.ItemForecast {

	var total float64
	for _, p := range ensemble.Predictions {
		total += p
	}
	forecastDemand := int(math.Round(total))
	leadTimeDemand := e.LeadTimeDemand(ensemble.Predictions, leadTimeDays, horizonDays)

	return domain.ItemForecast{
		SKU:                 sku,
		CurrentStock:        currentStock,
		Forecast7Day:        forecastDemand,
		RecommendedOrder:    e.ReorderQuantity(currentStock, forecastDemand, leadTimeDemand),
		ConfidenceScore:     ensemble.ConfidenceScore,
		Trend:               ensemble.Trend,
		SeasonalityDetected: ensemble.SeasonalityDetected,
		LeadTimeFactored:    leadTimeDays,
		ModelUsed:           ensemble.ModelName,
		DataQualityScore:    qualityScore,
	}
}
