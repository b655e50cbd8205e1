package domain

// Column locates one resolved input column. The zero value means "not found".
type Column struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
	Found  bool   `json:"found"`
}

// ColumnAt builds a found column reference.
func ColumnAt(index int, header string) Column {
	return Column{Index: index, Header: header, Found: true}
}

// ColumnRoles maps each semantic role to the input column that fills it.
type ColumnRoles struct {
	TotalSales         Column   `json:"total_sales"`
	CurrentStock       Column   `json:"current_stock"`
	UnitPrice          Column   `json:"unit_price"`
	Identifier         Column   `json:"identifier"`
	Description        Column   `json:"description"`
	FunctionalCategory Column   `json:"functional_category"`
	MonthlySales       []Column `json:"monthly_sales,omitempty"`
}

// HasValuation reports whether both stock and price columns were resolved.
func (r ColumnRoles) HasValuation() bool {
	return r.CurrentStock.Found && r.UnitPrice.Found
}

// Valuation holds the monetary and excess/shortage figures of a product.
type Valuation struct {
	StockValueCurrent  float64 `json:"stock_value_current"`
	StockValueIdeal    float64 `json:"stock_value_ideal"`
	StockValueLimit    float64 `json:"stock_value_limit"`
	ExcessUnits        float64 `json:"excess_units"`
	ExcessValue        float64 `json:"excess_value"`
	ShortageUnits      float64 `json:"shortage_units"`
	ShortageValue      float64 `json:"shortage_value"`
	ReplenishmentDelta float64 `json:"replenishment_delta"`
	TurnoverIndex      float64 `json:"turnover_index"`
	SalesValue         float64 `json:"sales_value"`
}

// Product is one input row enriched with classification and stock targets.
type Product struct {
	Row          int        `json:"row"`
	Values       []string   `json:"values"`
	Identifier   string     `json:"identifier"`
	Description  string     `json:"description"`
	AnnualSales  float64    `json:"annual_sales"`
	DailySales   float64    `json:"daily_sales"`
	Category     Category   `json:"category"`
	StockMin     float64    `json:"stock_min"`
	StockIdeal   float64    `json:"stock_ideal"`
	StockLimit   float64    `json:"stock_limit"`
	CurrentStock float64    `json:"current_stock"`
	UnitPrice    float64    `json:"unit_price"`
	Valuation    *Valuation `json:"valuation,omitempty"`
	Family       string     `json:"family"`
	Subfamily    string     `json:"subfamily"`
}

// Analysis is the enriched table produced by one run.
type Analysis struct {
	Headers  []string       `json:"headers"`
	Columns  ColumnRoles    `json:"columns"`
	Config   AnalysisConfig `json:"config"`
	Products []Product      `json:"products"`
}

// HasValuation reports whether valuation fields were computed for this run.
func (a *Analysis) HasValuation() bool {
	return a.Columns.HasValuation()
}
