package domain

import "fmt"

// AnalysisConfig holds the request-scoped parameters of one analysis run.
type AnalysisConfig struct {
	DaysOpen          int     `json:"days_open"`
	StockMinDays      int     `json:"stock_min_days"`
	StockMaxDays      int     `json:"stock_max_days"` // accepted for compatibility, not used by any formula
	CoverageDaysIdeal int     `json:"coverage_days_ideal"`
	SafetyMargin      float64 `json:"safety_margin"`
}

// DefaultAnalysisConfig mirrors the defaults offered to users.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		DaysOpen:          300,
		StockMinDays:      10,
		StockMaxDays:      20,
		CoverageDaysIdeal: 15,
		SafetyMargin:      0.0,
	}
}

// Validate checks every parameter against its documented range.
func (c AnalysisConfig) Validate() error {
	switch {
	case c.DaysOpen < 250 || c.DaysOpen > 365:
		return fmt.Errorf("%w: days_open %d not in [250, 365]", ErrInvalidConfig, c.DaysOpen)
	case c.StockMinDays < 5 || c.StockMinDays > 20:
		return fmt.Errorf("%w: stock_min_days %d not in [5, 20]", ErrInvalidConfig, c.StockMinDays)
	case c.StockMaxDays < 15 || c.StockMaxDays > 40:
		return fmt.Errorf("%w: stock_max_days %d not in [15, 40]", ErrInvalidConfig, c.StockMaxDays)
	case c.CoverageDaysIdeal < 10 || c.CoverageDaysIdeal > 30:
		return fmt.Errorf("%w: coverage_days_ideal %d not in [10, 30]", ErrInvalidConfig, c.CoverageDaysIdeal)
	case c.SafetyMargin < 0 || c.SafetyMargin > 0.30:
		return fmt.Errorf("%w: safety_margin %.2f not in [0, 0.30]", ErrInvalidConfig, c.SafetyMargin)
	}

	return nil
}

// CacheKeyParts returns the parameters as key/value pairs for memoization keys.
func (c AnalysisConfig) CacheKeyParts() map[string]string {
	return map[string]string{
		"days_open":           fmt.Sprintf("%d", c.DaysOpen),
		"stock_min_days":      fmt.Sprintf("%d", c.StockMinDays),
		"stock_max_days":      fmt.Sprintf("%d", c.StockMaxDays),
		"coverage_days_ideal": fmt.Sprintf("%d", c.CoverageDaysIdeal),
		"safety_margin":       fmt.Sprintf("%.4f", c.SafetyMargin),
	}
}
