package stock_rotation

import (
	"strings"

	"github.com/andresuchdata/farmastock/internal/domain"
)

var monthNames = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var monthAbbreviations = map[string]bool{
	"ene": true, "feb": true, "mar": true, "abr": true, "may": true, "jun": true,
	"jul": true, "ago": true, "sep": true, "sept": true, "oct": true, "nov": true, "dic": true,
}

// ResolveColumns identifies the semantic role of each input header.
// firstRow is the first data row and may be nil for an empty table.
func ResolveColumns(headers []string, firstRow []string) domain.ColumnRoles {
	var roles domain.ColumnRoles
	claimed := make(map[int]bool)
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	// One role per header, evaluated in priority order. A role already filled
	// is skipped so the header can still match a later rule.
	for i, h := range normalized {
		switch {
		case !roles.TotalSales.Found && strings.Contains(h, "total") && !strings.Contains(h, "ventas"):
			roles.TotalSales = domain.ColumnAt(i, headers[i])
		case !roles.CurrentStock.Found && strings.Contains(h, "stock") && (strings.Contains(h, "actual") || h == "stockactual"):
			roles.CurrentStock = domain.ColumnAt(i, headers[i])
		case !roles.UnitPrice.Found && h == "pvp":
			roles.UnitPrice = domain.ColumnAt(i, headers[i])
		case !roles.Identifier.Found && (h == "cn" || h == "codigo" || strings.Contains(h, "idarti")):
			roles.Identifier = domain.ColumnAt(i, headers[i])
		case !roles.Description.Found && strings.Contains(h, "descripcion"):
			roles.Description = domain.ColumnAt(i, headers[i])
		default:
			continue
		}
		claimed[i] = true
	}

	if idx := resolveCategory(normalized, firstRow, claimed); idx >= 0 {
		roles.FunctionalCategory = domain.ColumnAt(idx, headers[idx])
		claimed[idx] = true
	}

	if !roles.TotalSales.Found {
		for i, h := range normalized {
			if !claimed[i] && isSalesHeader(h) {
				roles.MonthlySales = append(roles.MonthlySales, domain.ColumnAt(i, headers[i]))
			}
		}
	}

	return roles
}

// resolveCategory returns the functional category column index or -1.
// A plain "categoria" header is preferred only when its first value is not
// already a prefix-suffix code, since such columns usually hold another taxonomy.
func resolveCategory(normalized []string, firstRow []string, claimed map[int]bool) int {
	for i, h := range normalized {
		if !claimed[i] && strings.Contains(h, "categoria") && strings.Contains(h, "funcional") {
			return i
		}
	}

	for i, h := range normalized {
		if claimed[i] || h != "categoria" {
			continue
		}
		if i >= len(firstRow) || !strings.Contains(firstRow[i], "-") {
			return i
		}
	}

	for i, h := range normalized {
		if !claimed[i] && h == "categoria" {
			return i
		}
	}

	return -1
}

func isSalesHeader(h string) bool {
	if strings.Contains(h, "ventas") {
		return true
	}
	for _, m := range monthNames {
		if strings.Contains(h, m) {
			return true
		}
	}

	tokens := strings.FieldsFunc(h, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, tok := range tokens {
		if monthAbbreviations[tok] {
			return true
		}
	}

	return false
}
