package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/export"
	"github.com/andresuchdata/farmastock/internal/service"
)

type AnalysisHandler struct {
	service  *service.AnalysisService
	defaults domain.AnalysisConfig
}

// NewAnalysisHandler serves uploads analyzed with defaults unless the form overrides them.
func NewAnalysisHandler(service *service.AnalysisService, defaults domain.AnalysisConfig) *AnalysisHandler {
	return &AnalysisHandler{service: service, defaults: defaults}
}

type analysisResponse struct {
	Config       domain.AnalysisConfig `json:"config"`
	Columns      domain.ColumnRoles    `json:"columns"`
	HasValuation bool                  `json:"has_valuation"`
	ProductCount int                   `json:"product_count"`
	Overview     *service.Overview     `json:"overview"`
	Products     []domain.Product      `json:"products"`
}

// GetFamilies returns the prefix table used to tag products with a family.
func (h *AnalysisHandler) GetFamilies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Families()})
}

// Analyze runs the full analysis and returns the overview with every product.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	analysis, ok := h.run(c)
	if !ok {
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	overview, err := h.service.Overview(analysis, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, analysisResponse{
		Config:       analysis.Config,
		Columns:      analysis.Columns,
		HasValuation: analysis.HasValuation(),
		ProductCount: len(analysis.Products),
		Overview:     overview,
		Products:     analysis.Products,
	})
}

// GetSummary groups the analysis by category, family or subfamily.
func (h *AnalysisHandler) GetSummary(c *gin.Context) {
	grouping, err := domain.ParseGrouping(h.param(c, "group_by", string(domain.GroupByCategory)))
	if err != nil {
		h.fail(c, err)
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	analysis, ok := h.run(c)
	if !ok {
		return
	}

	groups, err := h.service.Summarize(analysis, grouping, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group_by":      grouping,
		"has_valuation": analysis.HasValuation(),
		"data":          groups,
	})
}

// GetList returns all filtered products or only those in excess or shortage.
func (h *AnalysisHandler) GetList(c *gin.Context) {
	kind, err := domain.ParseListKind(h.param(c, "kind", ""))
	if err != nil {
		h.fail(c, err)
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	analysis, ok := h.run(c)
	if !ok {
		return
	}

	products, err := h.service.List(analysis, kind, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":  kind,
		"total": len(products),
		"data":  products,
	})
}

// Export renders the analysis as a download, or publishes it when publish=true.
func (h *AnalysisHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(strings.ToLower(h.param(c, "format", string(export.FormatXLSX))))
	if err != nil {
		h.fail(c, err)
		return
	}

	kind, err := domain.ParseListKind(h.param(c, "list", ""))
	if err != nil {
		h.fail(c, err)
		return
	}

	publish, _ := strconv.ParseBool(h.param(c, "publish", "false"))

	filter, err := h.parseFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	analysis, ok := h.run(c)
	if !ok {
		return
	}

	artifact, err := h.service.Export(analysis, format, kind, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	if publish {
		key, err := h.service.Publish(c.Request.Context(), artifact)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": key, "name": artifact.Name, "size": len(artifact.Data)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// run reads the uploaded file and analyzes it, writing the error response on failure.
// refresh=true drops any memoized result for the same upload first.
func (h *AnalysisHandler) run(c *gin.Context) (*domain.Analysis, bool) {
	cfg, err := h.parseConfig(c)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	name, data, err := h.readUpload(c)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	if refresh, _ := strconv.ParseBool(h.param(c, "refresh", "false")); refresh {
		if err := h.service.Forget(c.Request.Context(), data, cfg); err != nil {
			h.fail(c, err)
			return nil, false
		}
	}

	analysis, err := h.service.Analyze(c.Request.Context(), name, data, cfg)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	return analysis, true
}

func (h *AnalysisHandler) readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrEmptyUpload, err)
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, domain.ErrEmptyUpload
	}

	return header.Filename, data, nil
}

// parseConfig overlays the form and query parameters on the configured defaults.
func (h *AnalysisHandler) parseConfig(c *gin.Context) (domain.AnalysisConfig, error) {
	cfg := h.defaults

	ints := []struct {
		name string
		dst  *int
	}{
		{"days_open", &cfg.DaysOpen},
		{"stock_min_days", &cfg.StockMinDays},
		{"stock_max_days", &cfg.StockMaxDays},
		{"coverage_days_ideal", &cfg.CoverageDaysIdeal},
	}
	for _, p := range ints {
		raw := strings.TrimSpace(h.param(c, p.name, ""))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidConfig, p.name)
		}
		*p.dst = v
	}

	if raw := strings.TrimSpace(h.param(c, "safety_margin", "")); raw != "" {
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: safety_margin must be a number", domain.ErrInvalidConfig)
		}
		cfg.SafetyMargin = v
	}

	return cfg, cfg.Validate()
}

// parseFilter accepts repeated or comma-separated families and categories.
func (h *AnalysisHandler) parseFilter(c *gin.Context) (domain.SummaryFilter, error) {
	filter := domain.SummaryFilter{
		Family:   strings.TrimSpace(h.param(c, "family", "")),
		Families: h.list(c, "families"),
	}

	for _, code := range h.list(c, "categories") {
		category, ok := domain.ParseCategory(code)
		if !ok {
			return filter, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, code)
		}
		filter.Categories = append(filter.Categories, category)
	}

	return filter, nil
}

// param reads a value from the query string first, then the multipart form.
func (h *AnalysisHandler) param(c *gin.Context, name, fallback string) string {
	if v, ok := c.GetQuery(name); ok {
		return v
	}
	if v, ok := c.GetPostForm(name); ok {
		return v
	}

	return fallback
}

func (h *AnalysisHandler) list(c *gin.Context, name string) []string {
	raw := c.QueryArray(name)
	if len(raw) == 0 {
		raw = c.PostFormArray(name)
	}

	var values []string
	seen := make(map[string]struct{})
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			values = append(values, part)
		}
	}

	return values
}

func (h *AnalysisHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("analysis request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("analysis request rejected")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmptyUpload),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrUnknownGrouping),
		errors.Is(err, domain.ErrFamilyRequired),
		errors.Is(err, domain.ErrUnknownFormat),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrUnknownList),
		errors.Is(err, domain.ErrInvalidExportKey):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrExportNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnreadableTable),
		errors.Is(err, domain.ErrValuationUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPublishingDisabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
