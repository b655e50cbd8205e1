package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/farmastock/internal/config"
	"github.com/andresuchdata/farmastock/internal/service"
)

func cacheCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the memoized analysis results",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Drop every cached analysis",
				Action: func(c *cli.Context) error {
					svc, err := service.NewFromConfig(cfg)
					if err != nil {
						return err
					}
					if err := svc.ClearCache(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "analysis cache cleared")
					return nil
				},
			},
		},
	}
}

func exportsCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "exports",
		Usage: "Browse the exports published to the storage backend",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List published exports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Key prefix to list (defaults to the storage prefix)"},
				},
				Action: func(c *cli.Context) error {
					svc, err := service.NewFromConfig(cfg)
					if err != nil {
						return err
					}
					objects, err := svc.ListExports(c.Context, c.String("prefix"))
					if err != nil {
						return err
					}
					for _, object := range objects {
						fmt.Fprintf(c.App.Writer, "%10d  %s\n", object.Size, object.Key)
					}
					return nil
				},
			},
			{
				Name:      "get",
				Usage:     "Download a published export",
				ArgsUsage: "KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Destination file (defaults to the export name)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one KEY is required", 2)
					}

					svc, err := service.NewFromConfig(cfg)
					if err != nil {
						return err
					}
					artifact, err := svc.DownloadExport(c.Context, c.Args().First())
					if err != nil {
						return err
					}

					out := c.String("out")
					if out == "" {
						out = artifact.Name
					}
					if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
						return fmt.Errorf("writing %s: %w", out, err)
					}
					fmt.Fprintf(c.App.Writer, "%s (%d bytes)\n", out, len(artifact.Data))
					return nil
				},
			},
		},
	}
}
