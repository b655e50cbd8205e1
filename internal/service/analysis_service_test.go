package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/farmastock/internal/cache"
	"github.com/andresuchdata/farmastock/internal/config"
	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/export"
	"github.com/andresuchdata/farmastock/internal/storage"
)

const inventoryCSV = "CN;Descripcion;Categoria Funcional;Stock Actual;PVP;Total\n" +
	"100001;IBUPROFENO 600;ESPEC-ANALGESICOS;5;10;300\n" +
	"100002;CREMA SOLAR;SOL-FACIAL;4;12,5;20\n"

type countingCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Analysis
	sets    int
	// lookups, when set, receives a value on every Get.
	lookups chan struct{}
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]*domain.Analysis{}}
}

func (c *countingCache) Get(_ context.Context, key cache.AnalysisKey) (*domain.Analysis, bool, error) {
	if c.lookups != nil {
		c.lookups <- struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[key.String()]
	return a, ok, nil
}

func (c *countingCache) Set(_ context.Context, key cache.AnalysisKey, a *domain.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = a
	c.sets++
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, key cache.AnalysisKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
	return nil
}

func (c *countingCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *countingCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*domain.Analysis{}
	return nil
}

func testConfig() domain.AnalysisConfig {
	cfg := domain.DefaultAnalysisConfig()
	cfg.SafetyMargin = 0.15
	return cfg
}

func newTestService(t *testing.T, store storage.ObjectStorage) (*AnalysisService, *countingCache) {
	t.Helper()
	c := newCountingCache()
	svc := NewAnalysisService(nil, c, store, Options{StoragePrefix: "exports"})
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc, c
}

func TestAnalyzeMemoizesRuns(t *testing.T) {
	svc, c := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "stock.csv", []byte(inventoryCSV), testConfig())
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.Equal(t, domain.CategoryA, first.Products[0].Category)
	assert.Equal(t, domain.CategoryC, first.Products[1].Category)

	second, err := svc.Analyze(ctx, "renamed.csv", []byte(inventoryCSV), testConfig())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.sets)

	other := testConfig()
	other.CoverageDaysIdeal = 30
	third, err := svc.Analyze(ctx, "stock.csv", []byte(inventoryCSV), other)
	require.NoError(t, err)
	assert.Equal(t, 30.0, third.Products[0].StockIdeal)
	assert.Equal(t, 2, c.sets)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "empty.csv", nil, testConfig())
	assert.ErrorIs(t, err, domain.ErrEmptyUpload)

	cfg := testConfig()
	cfg.DaysOpen = 10
	_, err = svc.Analyze(ctx, "stock.csv", []byte(inventoryCSV), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = svc.Analyze(ctx, "blob.bin", []byte{0x00, 0xff, 0xfe, 0x00}, testConfig())
	assert.ErrorIs(t, err, domain.ErrUnreadableTable)
}

func TestOverviewAndLists(t *testing.T) {
	svc, _ := newTestService(t, nil)
	a, err := svc.Analyze(context.Background(), "stock.csv", []byte(inventoryCSV), testConfig())
	require.NoError(t, err)

	overview, err := svc.Overview(a, domain.SummaryFilter{})
	require.NoError(t, err)
	require.NotNil(t, overview.Executive)
	assert.Len(t, overview.Categories, len(domain.Categories))
	assert.Equal(t, 2, overview.Executive.Products)
	assert.Equal(t, 1, overview.Executive.ExcessProductCount)

	excess, err := svc.List(a, domain.ListExcess, domain.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, excess, 1)
	assert.Equal(t, "100002", excess[0].Identifier)

	all, err := svc.List(a, domain.ListAll, domain.SummaryFilter{Families: []string{"SOLARES"}})
	require.NoError(t, err)
	require.Len(t, all, 1)

	families, err := svc.Summarize(a, domain.GroupByFamily, domain.SummaryFilter{})
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestExportNamesArtifacts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	a, err := svc.Analyze(context.Background(), "stock.csv", []byte(inventoryCSV), testConfig())
	require.NoError(t, err)

	txt, err := svc.Export(a, export.FormatTXT, domain.ListExcess, domain.SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "CNs_exceso_20260301_0930.txt", txt.Name)
	assert.Equal(t, "100002", strings.TrimSpace(string(txt.Data)))

	xlsx, err := svc.Export(a, export.FormatXLSX, domain.ListAll, domain.SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "analisis_completo_20260301_0930.xlsx", xlsx.Name)
	assert.NotEmpty(t, xlsx.Data)

	csv, err := svc.Export(a, export.FormatCSV, domain.ListShortage, domain.SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "productos_deficit_20260301_0930.csv", csv.Name)
	assert.Contains(t, string(csv.Data), "100001")
	assert.NotContains(t, string(csv.Data), "100002")

	_, err = svc.Export(a, export.Format("doc"), domain.ListAll, domain.SummaryFilter{})
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	artifact := &Artifact{Name: "CNs_exceso.txt", ContentType: "text/plain", Data: []byte("1\n")}

	disabled, _ := newTestService(t, nil)
	_, err := disabled.Publish(ctx, artifact)
	assert.ErrorIs(t, err, domain.ErrPublishingDisabled)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc, _ := newTestService(t, store)

	key, err := svc.Publish(ctx, artifact)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "exports/2026/03/01/"))
	assert.True(t, strings.HasSuffix(key, "-CNs_exceso.txt"))

	data, err := store.DownloadObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, artifact.Data, data)
}

func TestNewFromConfig(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_BACKEND", "local")
	v.Set("STORAGE_LOCAL_DIR", t.TempDir())
	cfg := config.LoadFrom(v)

	svc, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc.store)
	assert.Len(t, svc.Families(), 32)

	v.Set("FAMILY_MAP_FILE", "/does/not/exist.yaml")
	_, err = NewFromConfig(config.LoadFrom(v))
	assert.Error(t, err)
}

// occupyRunSlots holds every analysis slot until the returned func is called.
func occupyRunSlots(t *testing.T, svc *AnalysisService, n int64) func() {
	t.Helper()
	require.NoError(t, svc.runs.Acquire(context.Background(), n))
	return func() { svc.runs.Release(n) }
}

func TestAnalyzeConcurrentIdenticalRequestsShareOneRun(t *testing.T) {
	c := newCountingCache()
	c.lookups = make(chan struct{}, 16)
	svc := NewAnalysisService(nil, c, nil, Options{MaxConcurrentRuns: 1})
	release := occupyRunSlots(t, svc, 1)

	const callers = 4
	results := make([]*domain.Analysis, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Analyze(context.Background(), "stock.csv", []byte(inventoryCSV), testConfig())
		}()
	}

	<-c.lookups
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, c.setCount())
}

func TestAnalyzeCallerCancellationDoesNotFailSharedRun(t *testing.T) {
	c := newCountingCache()
	c.lookups = make(chan struct{}, 16)
	svc := NewAnalysisService(nil, c, nil, Options{MaxConcurrentRuns: 1})
	release := occupyRunSlots(t, svc, 1)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(firstCtx, "stock.csv", []byte(inventoryCSV), testConfig())
		firstErr <- err
	}()

	<-c.lookups
	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type outcome struct {
		analysis *domain.Analysis
		err      error
	}
	second := make(chan outcome, 1)
	go func() {
		a, err := svc.Analyze(context.Background(), "stock.csv", []byte(inventoryCSV), testConfig())
		second <- outcome{a, err}
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.analysis.Products, 2)
	assert.Equal(t, 1, c.setCount())
}

func TestAnalyzeResolvesStockAfterTotalColumn(t *testing.T) {
	svc, _ := newTestService(t, nil)
	data := "CN;Total;Stock Actual Total;PVP\n100001;300;5;10\n"

	a, err := svc.Analyze(context.Background(), "stock.csv", []byte(data), testConfig())
	require.NoError(t, err)
	require.True(t, a.HasValuation())
	require.NotNil(t, a.Products[0].Valuation)
	assert.Equal(t, 5.0, a.Products[0].CurrentStock)
	assert.InDelta(t, 100.0, a.Products[0].Valuation.ShortageValue, 1e-9)
}

func TestForgetAndClearCache(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t, nil)
	data := []byte(inventoryCSV)

	first, err := svc.Analyze(ctx, "stock.csv", data, testConfig())
	require.NoError(t, err)

	require.NoError(t, svc.Forget(ctx, data, testConfig()))
	second, err := svc.Analyze(ctx, "stock.csv", data, testConfig())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, c.setCount())

	require.NoError(t, svc.ClearCache(ctx))
	_, err = svc.Analyze(ctx, "stock.csv", data, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, c.setCount())
}

func TestListAndDownloadExports(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newTestService(t, nil)
	_, err := disabled.ListExports(ctx, "")
	assert.ErrorIs(t, err, domain.ErrPublishingDisabled)
	_, err = disabled.DownloadExport(ctx, "exports/a.txt")
	assert.ErrorIs(t, err, domain.ErrPublishingDisabled)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc, _ := newTestService(t, store)

	key, err := svc.Publish(ctx, &Artifact{Name: "CNs_exceso.txt", ContentType: "text/plain", Data: []byte("100001\n")})
	require.NoError(t, err)

	objects, err := svc.ListExports(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
	assert.Equal(t, int64(7), objects[0].Size)

	objects, err = svc.ListExports(ctx, "exports/2026/03/02")
	require.NoError(t, err)
	assert.Empty(t, objects)

	artifact, err := svc.DownloadExport(ctx, "/"+key)
	require.NoError(t, err)
	assert.Equal(t, []byte("100001\n"), artifact.Data)
	assert.Equal(t, export.FormatTXT.ContentType(), artifact.ContentType)
	assert.True(t, strings.HasSuffix(artifact.Name, "-CNs_exceso.txt"))

	_, err = svc.DownloadExport(ctx, "exports/missing.txt")
	assert.ErrorIs(t, err, domain.ErrExportNotFound)

	_, err = svc.DownloadExport(ctx, "exports/../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidExportKey)
	_, err = svc.ListExports(ctx, "../outside")
	assert.ErrorIs(t, err, domain.ErrInvalidExportKey)
}
