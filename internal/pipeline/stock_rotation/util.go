package stock_rotation

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// roundFloat rounds v to the given number of decimal places, half away from zero.
// Rounding goes through the shortest decimal representation of v so that
// values such as 1.15 round to 1.2 rather than falling to the binary neighbour below.
func roundFloat(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}

	rounded, _ := decimal.NewFromFloat(v).Round(int32(decimals)).Float64()
	return rounded
}

// normalizeHeader lowercases, trims and strips diacritics so "Descripción" matches "descripcion".
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(strings.TrimSpace(folded))
}

var numberSanitizer = strings.NewReplacer("€", "", "EUR", "", " ", "", "\u00a0", "")

// parseNumber leniently converts a spreadsheet cell to a float.
// It accepts plain numbers, decimal commas and dotted thousands ("1.234,56"),
// and a trailing or leading euro sign. Anything else yields 0.
func parseNumber(raw string) float64 {
	s := numberSanitizer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
