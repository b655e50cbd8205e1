package pipeline

import (
	"time"

	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/export"
)

// Source is one spreadsheet queued for a batch run.
type Source struct {
	Name string
	Data []byte
}

// BatchConfig holds configuration for a batch run
type BatchConfig struct {
	Workers   int             // Number of sources analyzed concurrently
	OutputDir string          // Directory receiving the rendered exports
	Formats   []export.Format // Exports rendered per source
	Publish   bool            // Also upload every export to object storage
	Analysis  domain.AnalysisConfig
	Filter    domain.SummaryFilter
}

// DefaultBatchConfig returns sensible defaults
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Workers:   4,
		OutputDir: "data/output",
		Formats:   []export.Format{export.FormatXLSX},
		Analysis:  domain.DefaultAnalysisConfig(),
	}
}

// JobStatus represents the state of a single source in a batch
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// JobResult tracks the processing of a single source
type JobResult struct {
	Source    string
	Status    JobStatus
	Products  int
	Valuation bool
	Outputs   []string // Local paths written
	Published []string // Object keys uploaded
	Err       error
	Elapsed   time.Duration
}

// Failed counts the results that did not complete.
func Failed(results []JobResult) int {
	n := 0
	for _, r := range results {
		if r.Status == JobFailed {
			n++
		}
	}
	return n
}
