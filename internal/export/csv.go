package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/andresuchdata/farmastock/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the enriched table for the given products as semicolon
// separated UTF-8 with a BOM and decimal commas, the layout Spanish Excel opens directly.
func WriteCSV(w io.Writer, a *domain.Analysis, products []domain.Product) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write csv bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(enrichedHeaders(a)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, 0, len(a.Headers)+18)
	for _, p := range products {
		record = record[:0]
		for _, cell := range enrichedRow(a, p) {
			record = append(record, csvCell(cell))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", p.Row, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func csvCell(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return decimalComma(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
