package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/farmastock/internal/analytics"
	"github.com/andresuchdata/farmastock/internal/cache"
	"github.com/andresuchdata/farmastock/internal/config"
	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/export"
	"github.com/andresuchdata/farmastock/internal/pipeline/stock_rotation"
	"github.com/andresuchdata/farmastock/internal/storage"
	"github.com/andresuchdata/farmastock/internal/table"
)

const defaultMaxConcurrentRuns = 4

// Options tunes an AnalysisService.
type Options struct {
	MaxConcurrentRuns int64
	StoragePrefix     string
}

// Overview is the headline view returned with every analysis.
type Overview struct {
	Executive  *domain.ExecutiveSummary `json:"executive,omitempty"`
	Categories []domain.GroupSummary    `json:"categories"`
}

// Artifact is a rendered export ready to be downloaded or published.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

type AnalysisService struct {
	pipeline      *stock_rotation.Pipeline
	cache         cache.AnalysisCache
	store         storage.ObjectStorage
	storagePrefix string
	runs          *semaphore.Weighted
	inflight      singleflight.Group
	now           func() time.Time
}

// NewAnalysisService wires the pipeline with its memoizing cache and optional export storage.
// A nil store disables publishing.
func NewAnalysisService(p *stock_rotation.Pipeline, cacheImpl cache.AnalysisCache, store storage.ObjectStorage, opts Options) *AnalysisService {
	if p == nil {
		p = stock_rotation.NewPipeline(nil)
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = defaultMaxConcurrentRuns
	}

	return &AnalysisService{
		pipeline:      p,
		cache:         cacheImpl,
		store:         store,
		storagePrefix: opts.StoragePrefix,
		runs:          semaphore.NewWeighted(opts.MaxConcurrentRuns),
		now:           time.Now,
	}
}

// NewFromConfig builds the service with the family table, cache and storage selected by cfg.
func NewFromConfig(cfg *config.Config) (*AnalysisService, error) {
	families, err := stock_rotation.LoadFamilyTable(cfg.Analysis.FamilyMapFile)
	if err != nil {
		return nil, err
	}

	analysisCache, err := cache.NewAnalysisCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis cache: %w", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize export storage: %w", err)
	}

	return NewAnalysisService(stock_rotation.NewPipeline(families), analysisCache, store, Options{
		MaxConcurrentRuns: cfg.Analysis.MaxConcurrentRuns,
		StoragePrefix:     cfg.Storage.Prefix,
	}), nil
}

// Families returns the family table used to tag products.
func (s *AnalysisService) Families() []stock_rotation.FamilyEntry {
	return s.pipeline.Families().Entries()
}

// Analyze parses one uploaded spreadsheet and runs the rotation pipeline on it.
// Identical concurrent requests share one run, and completed runs are memoized
// by content, parameters and family table. Cancelling ctx only stops this
// caller from waiting; a run already started still completes and is cached.
func (s *AnalysisService) Analyze(ctx context.Context, name string, data []byte, cfg domain.AnalysisConfig) (*domain.Analysis, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyUpload
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key := s.keyFor(data, cfg)

	// The shared run ignores the first caller's cancellation; each caller
	// stops waiting on its own ctx.
	runCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key.String(), func() (interface{}, error) {
		return s.analyze(runCtx, key, name, data, cfg)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("file", name).Msg("analysis: shared in-flight run")
		}
		return res.Val.(*domain.Analysis), nil
	}
}

func (s *AnalysisService) keyFor(data []byte, cfg domain.AnalysisConfig) cache.AnalysisKey {
	return cache.AnalysisKey{
		ContentHash:       cache.ContentHash(data),
		Config:            cfg,
		FamilyFingerprint: s.pipeline.Families().Fingerprint(),
	}
}

// Forget drops the memoized run of data under cfg so the next Analyze recomputes it.
func (s *AnalysisService) Forget(ctx context.Context, data []byte, cfg domain.AnalysisConfig) error {
	if err := s.cache.Invalidate(ctx, s.keyFor(data, cfg)); err != nil {
		return fmt.Errorf("failed to invalidate analysis: %w", err)
	}
	return nil
}

// ClearCache drops every memoized run.
func (s *AnalysisService) ClearCache(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to clear analysis cache: %w", err)
	}

	log.Info().Msg("analysis: cache cleared")
	return nil
}

func (s *AnalysisService) analyze(ctx context.Context, key cache.AnalysisKey, name string, data []byte, cfg domain.AnalysisConfig) (*domain.Analysis, error) {
	if analysis, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		log.Debug().Str("file", name).Msg("analysis: cache hit")
		return analysis, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analysis: cache get failed")
	}

	if err := s.runs.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for an analysis slot: %w", err)
	}
	defer s.runs.Release(1)

	start := time.Now()
	tbl, err := table.Read(name, data)
	if err != nil {
		return nil, err
	}

	analysis := s.pipeline.Run(tbl, cfg)
	log.Debug().
		Str("file", name).
		Str("total_sales", analysis.Columns.TotalSales.Header).
		Str("current_stock", analysis.Columns.CurrentStock.Header).
		Str("unit_price", analysis.Columns.UnitPrice.Header).
		Str("functional_category", analysis.Columns.FunctionalCategory.Header).
		Msg("analysis: resolved columns")
	log.Info().
		Str("file", name).
		Int("products", len(analysis.Products)).
		Bool("valuation", analysis.HasValuation()).
		Int("monthly_columns", len(analysis.Columns.MonthlySales)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis: completed")

	if err := s.cache.Set(ctx, key, analysis); err != nil {
		log.Warn().Err(err).Msg("analysis: cache set failed")
	}

	return analysis, nil
}

// Overview returns the executive summary (when valuation is available) and the category view.
func (s *AnalysisService) Overview(a *domain.Analysis, f domain.SummaryFilter) (*Overview, error) {
	categories, err := analytics.GroupBy(a, domain.GroupByCategory, f)
	if err != nil {
		return nil, err
	}

	overview := &Overview{Categories: categories}
	if a.HasValuation() {
		executive, err := analytics.Executive(a, f)
		if err != nil {
			return nil, err
		}
		overview.Executive = &executive
	}

	return overview, nil
}

// Summarize groups the analysis along one dimension.
func (s *AnalysisService) Summarize(a *domain.Analysis, g domain.Grouping, f domain.SummaryFilter) ([]domain.GroupSummary, error) {
	return analytics.GroupBy(a, g, f)
}

// List returns all filtered products, or only those in excess or shortage.
func (s *AnalysisService) List(a *domain.Analysis, kind domain.ListKind, f domain.SummaryFilter) ([]domain.Product, error) {
	switch kind {
	case domain.ListExcess:
		return analytics.ExcessProducts(a, f)
	case domain.ListShortage:
		return analytics.ShortageProducts(a, f)
	default:
		return analytics.Filter(a.Products, f), nil
	}
}

// Export renders the analysis in the requested format. The list kind selects
// rows for CSV and identifier exports; workbook and PDF always cover every view.
func (s *AnalysisService) Export(a *domain.Analysis, format export.Format, kind domain.ListKind, f domain.SummaryFilter) (*Artifact, error) {
	var buf bytes.Buffer
	now := s.now()

	switch format {
	case export.FormatCSV:
		products, err := s.List(a, kind, f)
		if err != nil {
			return nil, err
		}
		if err := export.WriteCSV(&buf, a, products); err != nil {
			return nil, err
		}
	case export.FormatTXT:
		products, err := s.List(a, kind, f)
		if err != nil {
			return nil, err
		}
		if err := export.WriteIdentifiers(&buf, analytics.Identifiers(products)); err != nil {
			return nil, err
		}
	case export.FormatXLSX:
		if err := export.WriteWorkbook(&buf, a, f); err != nil {
			return nil, err
		}
	case export.FormatPDF:
		if err := export.WritePDFReport(&buf, a, f, now); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
	}

	return &Artifact{
		Name:        artifactName(format, kind, now),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func artifactName(format export.Format, kind domain.ListKind, now time.Time) string {
	base := "analisis_completo"
	switch format {
	case export.FormatTXT:
		base = map[domain.ListKind]string{
			domain.ListAll:      "CNs_todos",
			domain.ListExcess:   "CNs_exceso",
			domain.ListShortage: "CNs_deficit",
		}[kind]
	case export.FormatCSV:
		if kind == domain.ListExcess {
			base = "productos_exceso"
		} else if kind == domain.ListShortage {
			base = "productos_deficit"
		}
	case export.FormatPDF:
		base = "informe_stock"
	}
	if base == "" {
		base = "CNs_todos"
	}

	return fmt.Sprintf("%s_%s%s", base, now.Format("20060102_1504"), format.Extension())
}

// Publish uploads an artifact to the configured storage and returns its object key.
func (s *AnalysisService) Publish(ctx context.Context, artifact *Artifact) (string, error) {
	if s.store == nil {
		return "", domain.ErrPublishingDisabled
	}

	key := storage.ObjectKey(s.storagePrefix, artifact.Name, s.now())
	if err := s.store.UploadObject(ctx, key, artifact.Data, artifact.ContentType); err != nil {
		return "", fmt.Errorf("publishing %s: %w", artifact.Name, err)
	}

	log.Info().Str("key", key).Int("bytes", len(artifact.Data)).Msg("analysis: export published")
	return key, nil
}

// ListExports lists published exports under prefix, or under the configured
// storage prefix when prefix is empty.
func (s *AnalysisService) ListExports(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if s.store == nil {
		return nil, domain.ErrPublishingDisabled
	}

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = strings.Trim(s.storagePrefix, "/")
	}
	if prefix != "" && !storage.ValidKey(prefix) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExportKey, prefix)
	}

	objects, err := s.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	return objects, nil
}

// DownloadExport fetches a published export by its object key.
func (s *AnalysisService) DownloadExport(ctx context.Context, key string) (*Artifact, error) {
	if s.store == nil {
		return nil, domain.ErrPublishingDisabled
	}

	key = strings.TrimPrefix(key, "/")
	if !storage.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExportKey, key)
	}

	data, err := s.store.DownloadObject(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrExportNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}

	contentType := "application/octet-stream"
	if format, err := export.ParseFormat(strings.TrimPrefix(path.Ext(key), ".")); err == nil {
		contentType = format.ContentType()
	}

	return &Artifact{Name: path.Base(key), ContentType: contentType, Data: data}, nil
}
