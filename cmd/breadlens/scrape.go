package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/breadlens/backend/internal/bootstrap"
	"github.com/breadlens/backend/internal/infrastructure/report"
	"github.com/breadlens/backend/internal/usecase"
)

func (c *cli) scrapeCmd() *cobra.Command {
	var analyze, xlsx bool

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every configured platform and save a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(app *bootstrap.App) error {
				rep, err := app.Scraper.Run(cmd.Context())
				if rep == nil {
					return err
				}
				out := cmd.OutOrStdout()
				report.RenderScrapeSummary(out, usecase.SummarizeSnapshot(rep.Snapshot), rep.Failures)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				} else {
					fmt.Fprintf(out, "Snapshot saved to %s\n", rep.CombinedPath)
				}

				if !analyze {
					return nil
				}
				result, err := app.Analysis.Analyze(cmd.Context(), rep.Snapshot.Flatten())
				if err != nil {
					return err
				}
				return printAnalysis(cmd, app, result, xlsx)
			})
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "analyze the snapshot after scraping")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write the analysis workbook (with --analyze)")
	return cmd
}
