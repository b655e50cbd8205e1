// Package analytics groups an analysis into category, family and subfamily summaries.
package analytics

import (
	"sort"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// Filter returns the products matching every non-empty filter dimension.
func Filter(products []domain.Product, f domain.SummaryFilter) []domain.Product {
	if len(f.Families) == 0 && len(f.Categories) == 0 {
		return products
	}

	families := make(map[string]bool, len(f.Families))
	for _, fam := range f.Families {
		families[fam] = true
	}
	categories := make(map[domain.Category]bool, len(f.Categories))
	for _, c := range f.Categories {
		categories[c] = true
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if len(families) > 0 && !families[p.Family] {
			continue
		}
		if len(categories) > 0 && !categories[p.Category] {
			continue
		}
		out = append(out, p)
	}

	return out
}

// GroupBy summarizes the filtered products of an analysis along one dimension.
// Shares are relative to the filtered working set, not the whole analysis.
func GroupBy(a *domain.Analysis, g domain.Grouping, f domain.SummaryFilter) ([]domain.GroupSummary, error) {
	products := Filter(a.Products, f)

	var keyOf func(p domain.Product) string
	switch g {
	case domain.GroupByCategory:
		keyOf = func(p domain.Product) string { return string(p.Category) }
	case domain.GroupByFamily:
		keyOf = func(p domain.Product) string { return p.Family }
	case domain.GroupBySubfamily:
		if f.Family == "" {
			return nil, domain.ErrFamilyRequired
		}
		products = Filter(products, domain.SummaryFilter{Families: []string{f.Family}})
		keyOf = func(p domain.Product) string { return p.Subfamily }
	default:
		return nil, domain.ErrUnknownGrouping
	}

	agg := newAggregator(a.Columns.CurrentStock.Found, a.HasValuation())
	if g == domain.GroupByCategory {
		for _, c := range domain.Categories {
			agg.group(string(c))
		}
	}
	for _, p := range products {
		agg.add(keyOf(p), p)
	}

	summaries := agg.finish()
	if g != domain.GroupByCategory {
		sortGroups(summaries)
	}

	return summaries, nil
}

// sortGroups orders groups by current stock value, or by product count when
// no valuation is available. Ties fall back to the key for stable output.
func sortGroups(groups []domain.GroupSummary) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Value != nil && b.Value != nil && a.Value.StockValueCurrent != b.Value.StockValueCurrent {
			return a.Value.StockValueCurrent > b.Value.StockValueCurrent
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
}

type groupAcc struct {
	summary       domain.GroupSummary
	turnoverTotal float64
}

type aggregator struct {
	withStock     bool
	withValuation bool
	order         []string
	groups        map[string]*groupAcc
	total         groupAcc
}

func newAggregator(withStock, withValuation bool) *aggregator {
	return &aggregator{
		withStock:     withStock,
		withValuation: withValuation,
		groups:        make(map[string]*groupAcc),
		total: groupAcc{summary: domain.GroupSummary{
			Stock: &domain.StockRollup{},
			Value: &domain.ValueRollup{},
		}},
	}
}

func (ag *aggregator) group(key string) *groupAcc {
	if acc, ok := ag.groups[key]; ok {
		return acc
	}

	acc := &groupAcc{summary: domain.GroupSummary{Key: key}}
	if ag.withStock {
		acc.summary.Stock = &domain.StockRollup{}
	}
	if ag.withValuation {
		acc.summary.Value = &domain.ValueRollup{}
	}
	ag.groups[key] = acc
	ag.order = append(ag.order, key)

	return acc
}

func (ag *aggregator) add(key string, p domain.Product) {
	accumulate(ag.group(key), p, ag.withStock, ag.withValuation)
	accumulate(&ag.total, p, ag.withStock, ag.withValuation)
}

func accumulate(acc *groupAcc, p domain.Product, withStock, withValuation bool) {
	s := &acc.summary
	s.Count++
	s.AnnualSales += p.AnnualSales
	s.StockMin += p.StockMin
	s.StockIdeal += p.StockIdeal
	s.StockLimit += p.StockLimit

	if withStock && s.Stock != nil {
		s.Stock.CurrentStock += p.CurrentStock
	}
	if withValuation && s.Value != nil && p.Valuation != nil {
		v := p.Valuation
		s.Value.StockValueCurrent += v.StockValueCurrent
		s.Value.StockValueIdeal += v.StockValueIdeal
		s.Value.StockValueLimit += v.StockValueLimit
		s.Value.ExcessUnits += v.ExcessUnits
		s.Value.ExcessValue += v.ExcessValue
		s.Value.ShortageUnits += v.ShortageUnits
		s.Value.ShortageValue += v.ShortageValue
		s.Value.SalesValue += v.SalesValue
		acc.turnoverTotal += v.TurnoverIndex
	}
}

func (ag *aggregator) finish() []domain.GroupSummary {
	total := ag.total.summary
	out := make([]domain.GroupSummary, 0, len(ag.order))

	for _, key := range ag.order {
		acc := ag.groups[key]
		s := acc.summary
		s.CountShare = share(float64(s.Count), float64(total.Count))
		s.AnnualSalesShare = share(s.AnnualSales, total.AnnualSales)

		if s.Stock != nil {
			s.Stock.CurrentStockShare = share(s.Stock.CurrentStock, total.Stock.CurrentStock)
			if s.Count > 0 {
				s.Stock.UnitsPerReference = s.Stock.CurrentStock / float64(s.Count)
			}
		}
		if s.Value != nil {
			s.Value.NetGapUnits = s.Value.ExcessUnits - s.Value.ShortageUnits
			s.Value.NetGapValue = s.Value.ExcessValue - s.Value.ShortageValue
			if s.Count > 0 {
				s.Value.MeanTurnover = acc.turnoverTotal / float64(s.Count)
			}
			s.Value.StockValueShare = share(s.Value.StockValueCurrent, total.Value.StockValueCurrent)
			s.Value.ExcessValueShare = share(s.Value.ExcessValue, total.Value.ExcessValue)
			s.Value.ShortageValueShare = share(s.Value.ShortageValue, total.Value.ShortageValue)
		}

		out = append(out, s)
	}

	return out
}

// share returns part as a percentage of whole, or 0 when whole is 0.
func share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}

	return part / whole * 100
}
