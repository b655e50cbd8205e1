package stock_rotation

import "github.com/andresuchdata/farmastock/internal/domain"

// annualSales returns the yearly units sold for one row: the total column when
// present, otherwise the sum of the monthly columns, otherwise 0.
func annualSales(row []string, roles domain.ColumnRoles) float64 {
	if roles.TotalSales.Found {
		return cellNumber(row, roles.TotalSales)
	}

	var sum float64
	for _, col := range roles.MonthlySales {
		sum += cellNumber(row, col)
	}

	return sum
}

func cellNumber(row []string, col domain.Column) float64 {
	return parseNumber(cellText(row, col))
}

func cellText(row []string, col domain.Column) string {
	if !col.Found || col.Index < 0 || col.Index >= len(row) {
		return ""
	}

	return row[col.Index]
}
