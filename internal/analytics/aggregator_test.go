package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/farmastock/internal/analytics"
	"github.com/andresuchdata/farmastock/internal/domain"
)

func product(id string, cat domain.Category, family, sub string, stock, ideal, price, turnover float64) domain.Product {
	excess, shortage := 0.0, 0.0
	if stock > ideal {
		excess = stock - ideal
	} else {
		shortage = ideal - stock
	}

	return domain.Product{
		Identifier:   id,
		Category:     cat,
		Family:       family,
		Subfamily:    sub,
		AnnualSales:  turnover * stock,
		StockIdeal:   ideal,
		CurrentStock: stock,
		UnitPrice:    price,
		Valuation: &domain.Valuation{
			StockValueCurrent: stock * price,
			StockValueIdeal:   ideal * price,
			ExcessUnits:       excess,
			ExcessValue:       excess * price,
			ShortageUnits:     shortage,
			ShortageValue:     shortage * price,
			TurnoverIndex:     turnover,
		},
	}
}

func sampleAnalysis() *domain.Analysis {
	return &domain.Analysis{
		Columns: domain.ColumnRoles{
			CurrentStock: domain.ColumnAt(1, "Stock Actual"),
			UnitPrice:    domain.ColumnAt(2, "PVP"),
		},
		Products: []domain.Product{
			product("1", domain.CategoryA, "DERMO", "DERMO-ACNE", 10, 15, 2, 30),
			product("2", domain.CategoryA, "DERMO", "DERMO-SOLAR", 20, 15, 4, 20),
			product("3", domain.CategoryC, "SOLARES", "SOL-FACIAL", 5, 1, 10, 4),
			product("4", domain.CategoryE, "OTROS", "XYZ-1", 2, 0, 1, 0),
		},
	}
}

func TestGroupByCategoryKeepsEveryCategory(t *testing.T) {
	groups, err := analytics.GroupBy(sampleAnalysis(), domain.GroupByCategory, domain.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, groups, 5)

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, keys)

	a := groups[0]
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 50.0, a.CountShare)
	require.NotNil(t, a.Stock)
	assert.Equal(t, 30.0, a.Stock.CurrentStock)
	assert.Equal(t, 15.0, a.Stock.UnitsPerReference)
	require.NotNil(t, a.Value)
	assert.Equal(t, 100.0, a.Value.StockValueCurrent)
	assert.Equal(t, 20.0, a.Value.ExcessValue)
	assert.Equal(t, 10.0, a.Value.ShortageValue)
	assert.Equal(t, 10.0, a.Value.NetGapValue)
	assert.Equal(t, 25.0, a.Value.MeanTurnover)

	b := groups[1]
	assert.Zero(t, b.Count)
	assert.Zero(t, b.Value.StockValueCurrent)
	assert.Zero(t, b.Value.MeanTurnover)
}

func TestGroupByFamilySharesUseFilteredTotals(t *testing.T) {
	a := sampleAnalysis()

	groups, err := analytics.GroupBy(a, domain.GroupByFamily, domain.SummaryFilter{Families: []string{"DERMO", "SOLARES"}})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// DERMO holds 100 of the 150 filtered stock value.
	assert.Equal(t, "DERMO", groups[0].Key)
	assert.InDelta(t, 66.666, groups[0].Value.StockValueShare, 0.01)
	assert.Equal(t, "SOLARES", groups[1].Key)
	assert.InDelta(t, 33.333, groups[1].Value.StockValueShare, 0.01)

	var total float64
	for _, g := range groups {
		total += g.CountShare
	}
	assert.InDelta(t, 100, total, 1e-9)
}

func TestGroupBySubfamily(t *testing.T) {
	a := sampleAnalysis()

	_, err := analytics.GroupBy(a, domain.GroupBySubfamily, domain.SummaryFilter{})
	assert.ErrorIs(t, err, domain.ErrFamilyRequired)

	groups, err := analytics.GroupBy(a, domain.GroupBySubfamily, domain.SummaryFilter{Family: "DERMO"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "DERMO-SOLAR", groups[0].Key)
	assert.Equal(t, 50.0, groups[0].CountShare)
}

func TestGroupByUnknown(t *testing.T) {
	_, err := analytics.GroupBy(sampleAnalysis(), domain.Grouping("brand"), domain.SummaryFilter{})
	assert.ErrorIs(t, err, domain.ErrUnknownGrouping)
}

func TestGroupByWithoutValuationSkipsRollups(t *testing.T) {
	a := &domain.Analysis{Products: []domain.Product{
		{Identifier: "1", Category: domain.CategoryB, Family: "DERMO", StockIdeal: 3},
	}}

	groups, err := analytics.GroupBy(a, domain.GroupByCategory, domain.SummaryFilter{})
	require.NoError(t, err)
	for _, g := range groups {
		assert.Nil(t, g.Stock)
		assert.Nil(t, g.Value)
	}
	assert.Equal(t, 3.0, groups[1].StockIdeal)
}

func TestGroupByEmptySelection(t *testing.T) {
	groups, err := analytics.GroupBy(sampleAnalysis(), domain.GroupByCategory, domain.SummaryFilter{Families: []string{"NOPE"}})
	require.NoError(t, err)
	require.Len(t, groups, 5)
	for _, g := range groups {
		assert.Zero(t, g.Count)
		assert.Zero(t, g.CountShare)
	}
}

func TestFilterByCategory(t *testing.T) {
	out := analytics.Filter(sampleAnalysis().Products, domain.SummaryFilter{Categories: []domain.Category{domain.CategoryA}})
	assert.Len(t, out, 2)
}
