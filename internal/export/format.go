// Package export renders an analysis as CSV, XLSX, PDF and identifier lists.
package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// Format is a supported export artifact type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatTXT  Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatTXT, FormatPDF:
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", domain.ErrUnknownFormat, s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// FormatNumber renders v with dotted thousands and a decimal comma, e.g. 1234.5 => "1.234,50".
func FormatNumber(v float64, decimals int32) string {
	s := decimal.NewFromFloat(v).StringFixed(decimals)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}

	return b.String()
}

// FormatEUR renders a currency amount with two decimals and a trailing euro sign.
func FormatEUR(v float64) string {
	return FormatNumber(v, 2) + "€"
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(v float64) string {
	return FormatNumber(v, 1) + "%"
}

// decimalComma renders v at full precision with a comma decimal separator and no grouping.
func decimalComma(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).String(), ".", ",", 1)
}
