package export

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// Derived column names appended after the original input columns.
const (
	colTotalSales    = "Total_Ventas"
	colDailySales    = "Vtas_Dia"
	colCategory      = "Categoria_Rotacion"
	colStockMin      = "Stock_Min_Calc"
	colStockIdeal    = "Stock_Ideal"
	colStockLimit    = "Stock_Limite"
	colValueCurrent  = "Valor_Stock_Actual"
	colValueIdeal    = "Valor_Stock_Ideal"
	colValueLimit    = "Valor_Stock_Limite"
	colExcessUnits   = "Stock_Sobrante_Uds"
	colExcessValue   = "Stock_Sobrante"
	colShortageUnits = "Stock_Faltante_Uds"
	colShortageValue = "Stock_Faltante"
	colReplenishment = "Reposicion"
	colTurnover      = "Indice_Rotacion"
	colSalesValue    = "Valor_Ventas"
	colFamily        = "Familia"
	colSubfamily     = "Subfamilia"
)

// derivedHeaders lists the computed columns, including valuation columns only when they exist.
func derivedHeaders(withValuation bool) []string {
	headers := []string{colTotalSales, colDailySales, colCategory, colStockMin, colStockIdeal, colStockLimit}
	if withValuation {
		headers = append(headers,
			colValueCurrent, colValueIdeal, colValueLimit,
			colExcessUnits, colExcessValue, colShortageUnits, colShortageValue,
			colReplenishment, colTurnover, colSalesValue,
		)
	}

	return append(headers, colFamily, colSubfamily)
}

// derivedValues returns the computed cells of p in derivedHeaders order.
// Cells are float64 or string.
func derivedValues(p domain.Product, withValuation bool) []interface{} {
	values := []interface{}{
		p.AnnualSales, p.DailySales, string(p.Category), p.StockMin, p.StockIdeal, p.StockLimit,
	}
	if withValuation {
		v := p.Valuation
		if v == nil {
			v = &domain.Valuation{}
		}
		values = append(values,
			v.StockValueCurrent, v.StockValueIdeal, v.StockValueLimit,
			v.ExcessUnits, v.ExcessValue, v.ShortageUnits, v.ShortageValue,
			v.ReplenishmentDelta, v.TurnoverIndex, v.SalesValue,
		)
	}

	return append(values, p.Family, p.Subfamily)
}

// enrichedHeaders returns the original headers followed by the derived ones.
// A derived name already used by an input column gets a "_calc" suffix.
func enrichedHeaders(a *domain.Analysis) []string {
	headers := make([]string, 0, len(a.Headers)+18)
	headers = append(headers, a.Headers...)

	taken := make(map[string]struct{}, len(a.Headers)+18)
	for _, h := range a.Headers {
		taken[headerKey(h)] = struct{}{}
	}
	for _, h := range derivedHeaders(a.HasValuation()) {
		name := h
		for n := 2; ; n++ {
			if _, ok := taken[headerKey(name)]; !ok {
				break
			}
			name = h + "_calc"
			if n > 2 {
				name += strconv.Itoa(n - 1)
			}
		}
		taken[headerKey(name)] = struct{}{}
		headers = append(headers, name)
	}

	return headers
}

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// enrichedRow returns the original cells of p padded to the header width, then the derived cells.
func enrichedRow(a *domain.Analysis, p domain.Product) []interface{} {
	row := make([]interface{}, len(a.Headers), len(a.Headers)+18)
	for i := range a.Headers {
		if i < len(p.Values) {
			row[i] = p.Values[i]
		} else {
			row[i] = ""
		}
	}

	return append(row, derivedValues(p, a.HasValuation())...)
}
