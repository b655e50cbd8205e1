// Package stock_rotation classifies pharmacy products by rotation and sizes their stock.
package stock_rotation

import (
	"strings"

	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/table"
)

// Pipeline turns a raw table into an enriched analysis. It holds no per-run state.
type Pipeline struct {
	families *FamilyTable
}

// NewPipeline creates a pipeline using the given family table, or the default one when nil.
func NewPipeline(families *FamilyTable) *Pipeline {
	if families == nil {
		families = DefaultFamilyTable()
	}

	return &Pipeline{families: families}
}

// Families returns the family table the pipeline resolves categories with.
func (p *Pipeline) Families() *FamilyTable {
	return p.families
}

// Run resolves columns, aggregates sales, classifies, sizes, values and tags every row.
func (p *Pipeline) Run(tbl *table.Table, cfg domain.AnalysisConfig) *domain.Analysis {
	var firstRow []string
	if len(tbl.Rows) > 0 {
		firstRow = tbl.Rows[0]
	}
	roles := ResolveColumns(tbl.Headers, firstRow)
	calc := NewStockCalculator(cfg)
	valuation := roles.HasValuation()

	analysis := &domain.Analysis{
		Headers:  tbl.Headers,
		Columns:  roles,
		Config:   cfg,
		Products: make([]domain.Product, 0, len(tbl.Rows)),
	}

	for i, row := range tbl.Rows {
		product := domain.Product{
			Row:         i,
			Values:      row,
			Identifier:  strings.TrimSpace(cellText(row, roles.Identifier)),
			Description: strings.TrimSpace(cellText(row, roles.Description)),
			AnnualSales: annualSales(row, roles),
		}
		product.DailySales = calc.DailySales(product.AnnualSales)
		product.Category = Classify(product.AnnualSales)

		targets := calc.Size(product.Category, product.DailySales)
		product.StockMin = targets.Min
		product.StockIdeal = targets.Ideal
		product.StockLimit = targets.Limit

		if roles.CurrentStock.Found {
			product.CurrentStock = cellNumber(row, roles.CurrentStock)
		}
		if roles.UnitPrice.Found {
			product.UnitPrice = cellNumber(row, roles.UnitPrice)
		}
		if valuation {
			product.Valuation = calc.Value(product.AnnualSales, targets, product.CurrentStock, product.UnitPrice)
		}

		if roles.FunctionalCategory.Found {
			product.Family, product.Subfamily = p.families.Resolve(cellText(row, roles.FunctionalCategory))
		} else {
			product.Family, product.Subfamily = FamilyUnclassified, FamilyUnclassified
		}

		analysis.Products = append(analysis.Products, product)
	}

	return analysis
}
