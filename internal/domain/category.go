package domain

import "strings"

// Category is the rotation bucket a product falls into by annual sales.
type Category string

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
	CategoryC Category = "C"
	CategoryD Category = "D"
	CategoryE Category = "E"
)

// Categories lists every rotation category in report order.
var Categories = []Category{CategoryA, CategoryB, CategoryC, CategoryD, CategoryE}

var categoryLabels = map[Category]string{
	CategoryA: "Alta rotación",
	CategoryB: "Rotación media",
	CategoryC: "Rotación baja",
	CategoryD: "Rotación muy baja",
	CategoryE: "Sin rotación",
}

// Label returns a human-readable label for the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}

	return string(c)
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory returns the category for a single-letter code (case-insensitive).
func ParseCategory(code string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(code)))

	return c, c.Valid()
}
