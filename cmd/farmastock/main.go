package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/farmastock/internal/config"
	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/drive"
	"github.com/andresuchdata/farmastock/internal/export"
	"github.com/andresuchdata/farmastock/internal/pipeline"
	"github.com/andresuchdata/farmastock/internal/pipeline/stock_rotation"
	"github.com/andresuchdata/farmastock/internal/service"
	"github.com/andresuchdata/farmastock/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	app := &cli.App{
		Name:  "farmastock",
		Usage: "Classify pharmacy stock by rotation and size its stock targets",
		Commands: []*cli.Command{
			analyzeCommand(cfg),
			cacheCommand(cfg),
			exportsCommand(cfg),
			{
				Name:  "families",
				Usage: "Print the family table as YAML (usable as --family-map)",
				Flags: []cli.Flag{familyMapFlag(cfg)},
				Action: func(c *cli.Context) error {
					families, err := stock_rotation.LoadFamilyTable(c.String("family-map"))
					if err != nil {
						return err
					}
					data, err := families.YAML()
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("farmastock failed")
		os.Exit(1)
	}
}

func familyMapFlag(cfg *config.Config) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "family-map",
		Usage:   "YAML file with the prefix to family table",
		Value:   cfg.Analysis.FamilyMapFile,
		EnvVars: []string{"FAMILY_MAP_FILE"},
	}
}

func analyzeCommand(cfg *config.Config) *cli.Command {
	defaults := cfg.Analysis.Defaults

	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze one or more stock spreadsheets and write the exports",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days-open", Usage: "Days the pharmacy opens per year (250-365)", Value: defaults.DaysOpen},
			&cli.IntFlag{Name: "stock-min-days", Usage: "Days of sales covered by the minimum stock (5-20)", Value: defaults.StockMinDays},
			&cli.IntFlag{Name: "stock-max-days", Usage: "Maximum coverage days (15-40)", Value: defaults.StockMaxDays},
			&cli.IntFlag{Name: "coverage-days", Usage: "Days of sales covered by the ideal stock (10-30)", Value: defaults.CoverageDaysIdeal},
			&cli.Float64Flag{Name: "safety-margin", Usage: "Extra fraction above the ideal stock for the limit (0-0.30)", Value: defaults.SafetyMargin},
			familyMapFlag(cfg),
			&cli.StringFlag{Name: "out-dir", Usage: "Directory for the exports", Value: cfg.Analysis.OutputDir, EnvVars: []string{"APP_OUTPUT_DIR"}},
			&cli.StringSliceFlag{Name: "format", Usage: "Export formats: csv, xlsx, txt, pdf", Value: cli.NewStringSlice("xlsx")},
			&cli.IntFlag{Name: "workers", Usage: "Files analyzed concurrently", Value: int(cfg.Analysis.MaxConcurrentRuns)},
			&cli.BoolFlag{Name: "publish", Usage: "Upload every export to the configured storage backend"},
			&cli.StringSliceFlag{Name: "families", Usage: "Only include these families"},
			&cli.StringSliceFlag{Name: "categories", Usage: "Only include these rotation categories (A-E)"},
			&cli.StringSliceFlag{Name: "drive-file-id", Usage: "Google Drive file to analyze"},
			&cli.StringFlag{Name: "drive-folder-id", Usage: "Google Drive folder whose spreadsheets are analyzed"},
		},
		Action: func(c *cli.Context) error {
			return runAnalyze(c, cfg)
		},
	}
}

func runAnalyze(c *cli.Context, cfg *config.Config) error {
	analysisCfg := domain.AnalysisConfig{
		DaysOpen:          c.Int("days-open"),
		StockMinDays:      c.Int("stock-min-days"),
		StockMaxDays:      c.Int("stock-max-days"),
		CoverageDaysIdeal: c.Int("coverage-days"),
		SafetyMargin:      c.Float64("safety-margin"),
	}
	if err := analysisCfg.Validate(); err != nil {
		return err
	}

	formats, err := parseFormats(c.StringSlice("format"))
	if err != nil {
		return err
	}

	filter := domain.SummaryFilter{Families: c.StringSlice("families")}
	for _, code := range c.StringSlice("categories") {
		category, ok := domain.ParseCategory(code)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, code)
		}
		filter.Categories = append(filter.Categories, category)
	}

	cfg.Analysis.FamilyMapFile = c.String("family-map")
	svc, err := service.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	sources, err := collectSources(c, cfg)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return cli.Exit("no input files: pass FILE arguments, --drive-file-id or --drive-folder-id", 2)
	}

	orchestrator := pipeline.NewOrchestrator(svc, pipeline.BatchConfig{
		Workers:   c.Int("workers"),
		OutputDir: c.String("out-dir"),
		Formats:   formats,
		Publish:   c.Bool("publish"),
		Analysis:  analysisCfg,
		Filter:    filter,
	})

	results, err := orchestrator.Run(c.Context, sources)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(c.App.Writer, "FAILED  %s: %v\n", r.Source, r.Err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "OK      %s: %d products (%s)\n", r.Source, r.Products, r.Elapsed.Round(time.Millisecond))
		for _, path := range r.Outputs {
			fmt.Fprintf(c.App.Writer, "        %s\n", path)
		}
		for _, key := range r.Published {
			fmt.Fprintf(c.App.Writer, "        published %s\n", key)
		}
	}

	if failed := pipeline.Failed(results); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(results)), 1)
	}

	return nil
}

func parseFormats(values []string) ([]export.Format, error) {
	var formats []export.Format
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			format, err := export.ParseFormat(part)
			if err != nil {
				return nil, err
			}
			formats = append(formats, format)
		}
	}

	return formats, nil
}

// collectSources reads local files and downloads any requested Drive files.
func collectSources(c *cli.Context, cfg *config.Config) ([]pipeline.Source, error) {
	var sources []pipeline.Source
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, pipeline.Source{Name: filepath.Base(path), Data: data})
	}

	fileIDs := c.StringSlice("drive-file-id")
	folderID := c.String("drive-folder-id")
	if len(fileIDs) == 0 && folderID == "" {
		return sources, nil
	}

	driveService, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
	if err != nil {
		return nil, err
	}

	for _, id := range fileIDs {
		file, data, err := driveService.Fetch(c.Context, id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, pipeline.Source{Name: file.Name, Data: data})
	}

	if folderID != "" {
		downloads, err := drive.NewDownloader(driveService).FetchFolder(c.Context, folderID)
		if err != nil {
			return nil, err
		}
		for _, d := range downloads {
			sources = append(sources, pipeline.Source{Name: d.File.Name, Data: d.Data})
		}
	}

	return sources, nil
}
