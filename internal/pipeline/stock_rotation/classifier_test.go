package stock_rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/farmastock/internal/domain"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		sales float64
		want  domain.Category
	}{
		{0, domain.CategoryE},
		{0.99, domain.CategoryE},
		{1.0, domain.CategoryD},
		{11.99, domain.CategoryD},
		{12, domain.CategoryC},
		{51.9, domain.CategoryC},
		{52, domain.CategoryB},
		{260, domain.CategoryB},
		{260.01, domain.CategoryA},
		{5000, domain.CategoryA},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.sales), "sales=%v", tc.sales)
	}
}

func TestClassifyIsTotalPartition(t *testing.T) {
	for s := 0.0; s < 400; s += 0.25 {
		c := Classify(s)
		assert.True(t, c.Valid(), "sales=%v", s)
	}
}
