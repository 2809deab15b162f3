package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	lodelibrary "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/scanwatch/cli/reader"
	"github.com/pithecene-io/scanwatch/cli/render"
	"github.com/pithecene-io/scanwatch/cli/tui"
	"github.com/pithecene-io/scanwatch/lode"
)

// StatsCommand returns the stats command with subcommands.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show stored scan session statistics",
		Subcommands: []*cli.Command{
			statsSessionCommand(),
		},
	}
}

func statsSessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Show the latest session report (optionally filtered)",
		Flags: append(append(ReadOnlyFlags(), reportFlags()...),
			&cli.StringFlag{Name: "session-id", Usage: "Read the report for a specific session"},
			&cli.StringFlag{Name: "source", Usage: "Filter by source partition"},
		),
		Action: statsSessionAction,
	}
}

func statsSessionAction(c *cli.Context) error {
	backend := c.String("report-backend")
	path := c.String("report-path")
	if backend == "" || path == "" {
		return cli.Exit("both --report-backend and --report-path are required", exitConfigError)
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	ds, err := buildReadDataset(ctx, reportChoice{
		backend:   backend,
		path:      path,
		dataset:   c.String("report-dataset"),
		region:    c.String("report-region"),
		endpoint:  c.String("report-endpoint"),
		pathStyle: c.Bool("report-s3-path-style"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize report reader: %w", err)
	}

	record, err := lode.QueryLatestReport(ctx, ds, c.String("session-id"), c.String("source"))
	if err != nil {
		if errors.Is(err, lode.ErrNoReportFound) {
			return cli.Exit(err.Error(), exitError)
		}
		return fmt.Errorf("failed to read session report: %w", err)
	}

	stats, err := reader.ParseSessionReport(record)
	if err != nil {
		return fmt.Errorf("failed to parse session report: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewSession, stats)
	}
	return r.Render(stats)
}

// buildReadDataset opens the report dataset for reading.
func buildReadDataset(ctx context.Context, rc reportChoice) (lodelibrary.Dataset, error) {
	factory, err := rc.storeFactory(ctx)
	if err != nil {
		return nil, err
	}
	return lode.NewDataset(rc.datasetID(), factory)
}
