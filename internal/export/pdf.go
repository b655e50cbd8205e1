package export

import (
	"fmt"
	"io"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/andresuchdata/farmastock/internal/analytics"
	"github.com/andresuchdata/farmastock/internal/domain"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 80}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// topFamilies is how many families the PDF report lists by excess value.
const topFamilies = 15

// WritePDFReport renders a one-document management report: parameters,
// executive summary, category table and the families with most excess.
func WritePDFReport(w io.Writer, a *domain.Analysis, f domain.SummaryFilter, generatedAt time.Time) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Análisis de Stock", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(titleRow(generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(parametersRow(a.Config, len(analytics.Filter(a.Products, f))))

	if a.HasValuation() {
		summary, err := analytics.Executive(a, f)
		if err != nil {
			return err
		}
		m.AddRows(executiveRows(summary)...)
	}

	categories, err := analytics.GroupBy(a, domain.GroupByCategory, f)
	if err != nil {
		return err
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionRow("Resumen por categoría"))
	m.AddRows(groupTableRows(categories, func(g domain.GroupSummary) string {
		c, _ := domain.ParseCategory(g.Key)
		return g.Key + " · " + c.Label()
	})...)

	if a.HasValuation() && a.Columns.FunctionalCategory.Found {
		families, err := analytics.TopFamiliesByExcess(a, f, topFamilies)
		if err != nil {
			return err
		}
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionRow(fmt.Sprintf("Top %d familias por exceso", topFamilies)))
		m.AddRows(groupTableRows(families, func(g domain.GroupSummary) string { return g.Key })...)
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate pdf: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	return nil
}

func titleRow(generatedAt time.Time) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New("Análisis de Stock Farmacia", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 2,
			}),
		),
		col.New(4).Add(
			text.New(generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Color: colorGray, Top: 4,
			}),
		),
	)
}

func parametersRow(cfg domain.AnalysisConfig, products int) core.Row {
	params := fmt.Sprintf(
		"Productos: %d · Días abierto: %d · Stock mínimo: %d días · Cobertura ideal: %d días · Margen: %s",
		products, cfg.DaysOpen, cfg.StockMinDays, cfg.CoverageDaysIdeal, FormatPercent(cfg.SafetyMargin*100),
	)

	return row.New(8).Add(
		col.New(12).Add(text.New(params, props.Text{Size: 8, Color: colorGray, Top: 2})),
	)
}

func sectionRow(title string) core.Row {
	return row.New(8).Add(
		col.New(12).Add(text.New(title, props.Text{Style: fontstyle.Bold, Size: 11, Top: 2})),
	)
}

func executiveRows(s domain.ExecutiveSummary) []core.Row {
	metric := func(label, value, detail string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 5}),
			text.New(detail, props.Text{Size: 7, Color: colorGray, Top: 11}),
		)
	}

	verdict := "Exceso y déficit equilibrados"
	switch s.Balance {
	case domain.BalanceExcess:
		verdict = "El exceso supera al déficit en " + FormatEUR(s.NetGap)
	case domain.BalanceShortage:
		verdict = "El déficit supera al exceso en " + FormatEUR(-s.NetGap)
	}

	return []core.Row{
		sectionRow("Resumen ejecutivo"),
		row.New(16).Add(
			metric("Inversión en stock", FormatEUR(s.TotalInvestment), fmt.Sprintf("%d productos", s.Products)),
			metric("Inversión ideal", FormatEUR(s.IdealInvestment), "diferencia "+FormatEUR(s.TotalInvestment-s.IdealInvestment)),
			metric("Exceso de stock", FormatEUR(s.ExcessValue), FormatPercent(s.ExcessShare)+" del total"),
			metric("Déficit de stock", FormatEUR(s.ShortageValue), FormatPercent(s.ShortageShare)+" del ideal"),
		),
		row.New(7).Add(col.New(12).Add(text.New(verdict, props.Text{Size: 8, Style: fontstyle.Italic, Top: 1}))),
	}
}

func groupTableRows(groups []domain.GroupSummary, label func(domain.GroupSummary) string) []core.Row {
	header := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary}))
	}
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a}))
	}

	rows := []core.Row{
		row.New(6).Add(
			header("Grupo", 4, align.Left),
			header("Productos", 2, align.Right),
			header("Valor stock", 2, align.Right),
			header("Exceso", 2, align.Right),
			header("Déficit", 2, align.Right),
		),
	}

	for _, g := range groups {
		stockValue, excess, shortage := "-", "-", "-"
		if g.Value != nil {
			stockValue = FormatEUR(g.Value.StockValueCurrent)
			excess = FormatEUR(g.Value.ExcessValue)
			shortage = FormatEUR(g.Value.ShortageValue)
		}
		rows = append(rows, row.New(5).Add(
			cell(label(g), 4, align.Left),
			cell(fmt.Sprintf("%d (%s)", g.Count, FormatPercent(g.CountShare)), 2, align.Right),
			cell(stockValue, 2, align.Right),
			cell(excess, 2, align.Right),
			cell(shortage, 2, align.Right),
		))
	}

	return rows
}
