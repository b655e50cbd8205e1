package analytics

import (
	"sort"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// Executive computes the headline investment, excess and shortage figures.
func Executive(a *domain.Analysis, f domain.SummaryFilter) (domain.ExecutiveSummary, error) {
	if !a.HasValuation() {
		return domain.ExecutiveSummary{}, domain.ErrValuationUnavailable
	}

	var s domain.ExecutiveSummary
	for _, p := range Filter(a.Products, f) {
		s.Products++
		if p.Valuation == nil {
			continue
		}
		s.TotalInvestment += p.Valuation.StockValueCurrent
		s.IdealInvestment += p.Valuation.StockValueIdeal
		s.ExcessValue += p.Valuation.ExcessValue
		s.ShortageValue += p.Valuation.ShortageValue
		if p.Valuation.ExcessUnits > 0 {
			s.ExcessProductCount++
		}
		if p.Valuation.ShortageUnits > 0 {
			s.ShortageProductCount++
		}
	}

	s.ExcessShare = share(s.ExcessValue, s.TotalInvestment)
	s.ShortageShare = share(s.ShortageValue, s.IdealInvestment)
	s.NetGap = s.ExcessValue - s.ShortageValue
	switch {
	case s.ExcessValue > s.ShortageValue:
		s.Balance = domain.BalanceExcess
	case s.ShortageValue > s.ExcessValue:
		s.Balance = domain.BalanceShortage
	default:
		s.Balance = domain.BalanceEven
	}

	return s, nil
}

// ExcessProducts lists products holding more than their ideal stock, largest excess value first.
func ExcessProducts(a *domain.Analysis, f domain.SummaryFilter) ([]domain.Product, error) {
	return gapProducts(a, f,
		func(v *domain.Valuation) bool { return v.ExcessUnits > 0 },
		func(v *domain.Valuation) float64 { return v.ExcessValue },
	)
}

// ShortageProducts lists products below their ideal stock, largest shortage value first.
func ShortageProducts(a *domain.Analysis, f domain.SummaryFilter) ([]domain.Product, error) {
	return gapProducts(a, f,
		func(v *domain.Valuation) bool { return v.ShortageUnits > 0 },
		func(v *domain.Valuation) float64 { return v.ShortageValue },
	)
}

func gapProducts(a *domain.Analysis, f domain.SummaryFilter, keep func(*domain.Valuation) bool, value func(*domain.Valuation) float64) ([]domain.Product, error) {
	if !a.HasValuation() {
		return nil, domain.ErrValuationUnavailable
	}

	var out []domain.Product
	for _, p := range Filter(a.Products, f) {
		if p.Valuation != nil && keep(p.Valuation) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return value(out[i].Valuation) > value(out[j].Valuation)
	})

	return out, nil
}

// TopFamiliesByExcess returns at most n families ordered by excess value.
func TopFamiliesByExcess(a *domain.Analysis, f domain.SummaryFilter, n int) ([]domain.GroupSummary, error) {
	if !a.HasValuation() {
		return nil, domain.ErrValuationUnavailable
	}

	groups, err := GroupBy(a, domain.GroupByFamily, f)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value.ExcessValue > groups[j].Value.ExcessValue
	})
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}

	return groups, nil
}

// Identifiers returns the product identifiers in order, skipping blanks.
func Identifiers(products []domain.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.Identifier != "" {
			ids = append(ids, p.Identifier)
		}
	}

	return ids
}
