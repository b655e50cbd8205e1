package stock_rotation

import (
	"math"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// StockTargets are the three stock levels sized for one product.
type StockTargets struct {
	Min   float64
	Ideal float64
	Limit float64
}

// StockCalculator sizes stock targets and values a product against them.
type StockCalculator struct {
	cfg domain.AnalysisConfig
}

// NewStockCalculator creates a calculator bound to one set of analysis parameters.
func NewStockCalculator(cfg domain.AnalysisConfig) *StockCalculator {
	return &StockCalculator{cfg: cfg}
}

// DailySales spreads annual sales over the days the pharmacy is open.
func (sc *StockCalculator) DailySales(annualSales float64) float64 {
	if sc.cfg.DaysOpen <= 0 {
		return 0
	}

	return annualSales / float64(sc.cfg.DaysOpen)
}

// Size computes the minimum, ideal and limit stock for a category.
// Fast movers are sized from daily sales; slow movers get fixed unit targets.
func (sc *StockCalculator) Size(category domain.Category, dailySales float64) StockTargets {
	growth := 1 + sc.cfg.SafetyMargin

	var t StockTargets
	switch category {
	case domain.CategoryA, domain.CategoryB:
		t.Min = dailySales * float64(sc.cfg.StockMinDays)
		t.Ideal = dailySales * float64(sc.cfg.CoverageDaysIdeal)
		t.Limit = t.Ideal * growth
	case domain.CategoryC:
		t.Min = 1
		t.Ideal = 1
		t.Limit = 1 * growth
	case domain.CategoryD:
		t.Min = 0
		t.Ideal = 1
		t.Limit = 1 * growth
	}

	return StockTargets{
		Min:   roundFloat(t.Min, 1),
		Ideal: roundFloat(t.Ideal, 1),
		Limit: roundFloat(t.Limit, 1),
	}
}

// Value computes monetary figures and the gap between current and ideal stock.
// The ideal level is the baseline for excess and shortage; the limit is only reported.
func (sc *StockCalculator) Value(annualSales float64, targets StockTargets, currentStock, unitPrice float64) *domain.Valuation {
	v := &domain.Valuation{
		StockValueCurrent:  currentStock * unitPrice,
		StockValueIdeal:    targets.Ideal * unitPrice,
		StockValueLimit:    targets.Limit * unitPrice,
		ExcessUnits:        math.Max(0, currentStock-targets.Ideal),
		ShortageUnits:      math.Max(0, targets.Ideal-currentStock),
		ReplenishmentDelta: targets.Ideal - currentStock,
		SalesValue:         annualSales * unitPrice,
	}
	v.ExcessValue = v.ExcessUnits * unitPrice
	v.ShortageValue = v.ShortageUnits * unitPrice

	if currentStock > 0 {
		v.TurnoverIndex = roundFloat(annualSales/currentStock, 2)
	}

	return v
}
