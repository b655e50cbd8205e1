package domain

import "fmt"

// Grouping names the dimension a summary is built over.
type Grouping string

const (
	GroupByCategory  Grouping = "category"
	GroupByFamily    Grouping = "family"
	GroupBySubfamily Grouping = "subfamily"
)

// ParseGrouping validates a grouping name.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(s); g {
	case GroupByCategory, GroupByFamily, GroupBySubfamily:
		return g, nil
	}

	return "", ErrUnknownGrouping
}

// SummaryFilter narrows the working set before grouping. Empty slices mean "all".
type SummaryFilter struct {
	Families   []string   `json:"families,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	// Family selects the family whose subfamilies are summarized.
	Family string `json:"family,omitempty"`
}

// StockRollup aggregates stock quantities of a group.
type StockRollup struct {
	CurrentStock      float64 `json:"current_stock"`
	CurrentStockShare float64 `json:"current_stock_share"`
	UnitsPerReference float64 `json:"units_per_reference"`
}

// ValueRollup aggregates the valuation fields of a group.
type ValueRollup struct {
	StockValueCurrent  float64 `json:"stock_value_current"`
	StockValueIdeal    float64 `json:"stock_value_ideal"`
	StockValueLimit    float64 `json:"stock_value_limit"`
	ExcessUnits        float64 `json:"excess_units"`
	ExcessValue        float64 `json:"excess_value"`
	ShortageUnits      float64 `json:"shortage_units"`
	ShortageValue      float64 `json:"shortage_value"`
	NetGapUnits        float64 `json:"net_gap_units"`
	NetGapValue        float64 `json:"net_gap_value"`
	SalesValue         float64 `json:"sales_value"`
	MeanTurnover       float64 `json:"mean_turnover"`
	StockValueShare    float64 `json:"stock_value_share"`
	ExcessValueShare   float64 `json:"excess_value_share"`
	ShortageValueShare float64 `json:"shortage_value_share"`
}

// GroupSummary is one row of a grouped view.
type GroupSummary struct {
	Key              string       `json:"key"`
	Count            int          `json:"count"`
	CountShare       float64      `json:"count_share"`
	AnnualSales      float64      `json:"annual_sales"`
	AnnualSalesShare float64      `json:"annual_sales_share"`
	StockMin         float64      `json:"stock_min"`
	StockIdeal       float64      `json:"stock_ideal"`
	StockLimit       float64      `json:"stock_limit"`
	Stock            *StockRollup `json:"stock,omitempty"`
	Value            *ValueRollup `json:"value,omitempty"`
}

// Balance describes whether excess or shortage dominates.
type Balance string

const (
	BalanceExcess   Balance = "excess"
	BalanceShortage Balance = "shortage"
	BalanceEven     Balance = "balanced"
)

// ExecutiveSummary holds the headline figures of an analysis.
type ExecutiveSummary struct {
	Products             int     `json:"products"`
	TotalInvestment      float64 `json:"total_investment"`
	IdealInvestment      float64 `json:"ideal_investment"`
	ExcessValue          float64 `json:"excess_value"`
	ExcessShare          float64 `json:"excess_share"`
	ShortageValue        float64 `json:"shortage_value"`
	ShortageShare        float64 `json:"shortage_share"`
	NetGap               float64 `json:"net_gap"`
	Balance              Balance `json:"balance"`
	ExcessProductCount   int     `json:"excess_product_count"`
	ShortageProductCount int     `json:"shortage_product_count"`
}

// ListKind selects which products a list or export contains.
type ListKind string

const (
	ListAll      ListKind = "all"
	ListExcess   ListKind = "excess"
	ListShortage ListKind = "shortage"
)

// ParseListKind validates a list name, defaulting to ListAll when empty.
func ParseListKind(s string) (ListKind, error) {
	switch k := ListKind(s); k {
	case "":
		return ListAll, nil
	case ListAll, ListExcess, ListShortage:
		return k, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
}
