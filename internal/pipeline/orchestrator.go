package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/export"
	"github.com/andresuchdata/farmastock/internal/service"
)

// Analyzer is the part of the analysis service a batch run depends on.
type Analyzer interface {
	Analyze(ctx context.Context, name string, data []byte, cfg domain.AnalysisConfig) (*domain.Analysis, error)
	Export(a *domain.Analysis, format export.Format, kind domain.ListKind, f domain.SummaryFilter) (*service.Artifact, error)
	Publish(ctx context.Context, artifact *service.Artifact) (string, error)
}

// Orchestrator analyzes a set of spreadsheets concurrently and writes their exports.
type Orchestrator struct {
	analyzer Analyzer
	cfg      BatchConfig
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(analyzer Analyzer, cfg BatchConfig) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = DefaultBatchConfig().Formats
	}

	return &Orchestrator{analyzer: analyzer, cfg: cfg}
}

// Run processes every source with at most cfg.Workers in flight. A failing
// source is reported in its JobResult and does not stop the others; the
// returned error is only set when the output directory or the context fails.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) ([]JobResult, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]JobResult, len(sources))
	for i, src := range sources {
		results[i] = JobResult{Source: src.Name, Status: JobQueued}
	}
	stems := outputStems(sources)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for i := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.process(gctx, sources[i], stems[i], &results[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	log.Info().
		Int("sources", len(sources)).
		Int("failed", Failed(results)).
		Msg("batch: completed")

	return results, nil
}

func (o *Orchestrator) process(ctx context.Context, src Source, stem string, res *JobResult) {
	start := time.Now()
	res.Status = JobProcessing

	if err := o.processSource(ctx, src, stem, res); err != nil {
		res.Status = JobFailed
		res.Err = err
		log.Error().Err(err).Str("source", src.Name).Msg("batch: source failed")
	} else {
		res.Status = JobCompleted
	}
	res.Elapsed = time.Since(start)
}

func (o *Orchestrator) processSource(ctx context.Context, src Source, stem string, res *JobResult) error {
	analysis, err := o.analyzer.Analyze(ctx, src.Name, src.Data, o.cfg.Analysis)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	res.Products = len(analysis.Products)
	res.Valuation = analysis.HasValuation()

	for _, format := range o.cfg.Formats {
		for _, kind := range o.listsFor(format, analysis) {
			artifact, err := o.analyzer.Export(analysis, format, kind, o.cfg.Filter)
			if err != nil {
				return fmt.Errorf("%s export failed: %w", format, err)
			}

			path := filepath.Join(o.cfg.OutputDir, stem+"_"+artifact.Name)
			if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			res.Outputs = append(res.Outputs, path)

			if o.cfg.Publish {
				key, err := o.analyzer.Publish(ctx, artifact)
				if err != nil {
					return err
				}
				res.Published = append(res.Published, key)
			}
		}
	}

	return nil
}

// outputStems names the exports of each source after its file name. Sources
// sharing a base name also get their 1-based position so their files stay apart.
func outputStems(sources []Source) []string {
	stems := make([]string, len(sources))
	counts := make(map[string]int, len(sources))
	for i, src := range sources {
		stems[i] = strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name))
		counts[stems[i]]++
	}
	for i, stem := range stems {
		if counts[stem] > 1 {
			stems[i] = fmt.Sprintf("%s_%d", stem, i+1)
			for counts[stems[i]] > 0 {
				stems[i] += "_"
			}
			counts[stems[i]]++
		}
	}
	return stems
}

// listsFor picks the product lists rendered for a format. Identifier lists
// are split into excess and shortage when valuation is available.
func (o *Orchestrator) listsFor(format export.Format, a *domain.Analysis) []domain.ListKind {
	if format == export.FormatTXT && a.HasValuation() {
		return []domain.ListKind{domain.ListExcess, domain.ListShortage}
	}

	return []domain.ListKind{domain.ListAll}
}
