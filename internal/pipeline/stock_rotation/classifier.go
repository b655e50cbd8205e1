package stock_rotation

import "github.com/andresuchdata/farmastock/internal/domain"

// Rotation thresholds in units sold per year.
const (
	thresholdA = 260.0
	thresholdB = 52.0
	thresholdC = 12.0
	thresholdD = 1.0
)

// Classify maps annual sales to a rotation category. A is strictly above 260;
// every other band is closed on its lower bound.
func Classify(annualSales float64) domain.Category {
	switch {
	case annualSales > thresholdA:
		return domain.CategoryA
	case annualSales >= thresholdB:
		return domain.CategoryB
	case annualSales >= thresholdC:
		return domain.CategoryC
	case annualSales >= thresholdD:
		return domain.CategoryD
	default:
		return domain.CategoryE
	}
}
