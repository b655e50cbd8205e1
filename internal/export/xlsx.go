package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/farmastock/internal/analytics"
	"github.com/andresuchdata/farmastock/internal/domain"
)

const (
	sheetData       = "Datos Completos"
	sheetCategories = "Resumen Categorías"
	sheetFamilies   = "Resumen Familias"
	sheetExcess     = "Exceso Stock"
	sheetShortage   = "Déficit Stock"
)

// WriteWorkbook writes the full enriched table plus one sheet per summary view.
// Family and valuation sheets are only added when their input columns were found.
func WriteWorkbook(w io.Writer, a *domain.Analysis, f domain.SummaryFilter) error {
	wb := excelize.NewFile()
	defer wb.Close()

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := wb.SetSheetName("Sheet1", sheetData); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	products := analytics.Filter(a.Products, f)
	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		rows = append(rows, enrichedRow(a, p))
	}
	if err := writeSheet(wb, sheetData, toCells(enrichedHeaders(a)), rows, headerStyle); err != nil {
		return err
	}

	categories, err := analytics.GroupBy(a, domain.GroupByCategory, f)
	if err != nil {
		return err
	}
	if err := writeSummarySheet(wb, sheetCategories, categories, headerStyle); err != nil {
		return err
	}

	if a.Columns.FunctionalCategory.Found {
		families, err := analytics.GroupBy(a, domain.GroupByFamily, f)
		if err != nil {
			return err
		}
		if err := writeSummarySheet(wb, sheetFamilies, families, headerStyle); err != nil {
			return err
		}
	}

	if a.HasValuation() {
		excess, err := analytics.ExcessProducts(a, f)
		if err != nil {
			return err
		}
		if err := writeGapSheet(wb, sheetExcess, excess, true, headerStyle); err != nil {
			return err
		}

		shortage, err := analytics.ShortageProducts(a, f)
		if err != nil {
			return err
		}
		if err := writeGapSheet(wb, sheetShortage, shortage, false, headerStyle); err != nil {
			return err
		}
	}

	wb.SetActiveSheet(0)
	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func writeSummarySheet(wb *excelize.File, sheet string, groups []domain.GroupSummary, style int) error {
	headers := []interface{}{"Grupo", "Productos", "% Productos", "Ventas Anuales", "Stock Mínimo", "Stock Ideal", "Stock Límite"}
	withStock := len(groups) > 0 && groups[0].Stock != nil
	withValue := len(groups) > 0 && groups[0].Value != nil
	if withStock {
		headers = append(headers, "Stock Actual", "% Stock", "Uds/Ref")
	}
	if withValue {
		headers = append(headers,
			"Valor Stock Actual", "% Valor", "Valor Stock Ideal", "Valor Stock Límite",
			"Exceso Uds", "Exceso €", "Déficit Uds", "Déficit €", "Desfase €", "Rotación Media",
		)
	}

	rows := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		row := []interface{}{g.Key, g.Count, g.CountShare, g.AnnualSales, g.StockMin, g.StockIdeal, g.StockLimit}
		if withStock {
			row = append(row, g.Stock.CurrentStock, g.Stock.CurrentStockShare, g.Stock.UnitsPerReference)
		}
		if withValue {
			v := g.Value
			row = append(row,
				v.StockValueCurrent, v.StockValueShare, v.StockValueIdeal, v.StockValueLimit,
				v.ExcessUnits, v.ExcessValue, v.ShortageUnits, v.ShortageValue, v.NetGapValue, v.MeanTurnover,
			)
		}
		rows = append(rows, row)
	}

	if _, err := wb.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	return writeSheet(wb, sheet, headers, rows, style)
}

func writeGapSheet(wb *excelize.File, sheet string, products []domain.Product, excess bool, style int) error {
	headers := []interface{}{"Identificador", "Descripción", "Categoria", "Familia", "Stock Actual", "Stock Ideal"}
	if excess {
		headers = append(headers, "Exceso Uds", "Exceso €")
	} else {
		headers = append(headers, "Déficit Uds", "Déficit €")
	}

	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		units, value := p.Valuation.ExcessUnits, p.Valuation.ExcessValue
		if !excess {
			units, value = p.Valuation.ShortageUnits, p.Valuation.ShortageValue
		}
		rows = append(rows, []interface{}{
			p.Identifier, p.Description, string(p.Category), p.Family, p.CurrentStock, p.StockIdeal, units, value,
		})
	}

	if _, err := wb.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	return writeSheet(wb, sheet, headers, rows, style)
}

func writeSheet(wb *excelize.File, sheet string, headers []interface{}, rows [][]interface{}, style int) error {
	if err := wb.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	if err := wb.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}

	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}
		if err := wb.SetColWidth(sheet, "A", last, 16); err != nil {
			return fmt.Errorf("failed to set column width of %s: %w", sheet, err)
		}
	}

	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
