package main

import (
	"github.com/spf13/cobra"

	"github.com/breadlens/backend/internal/bootstrap"
	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/report"
)

func (c *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect persisted analysis runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(app *bootstrap.App) error {
				runs, err := app.Analysis.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				report.RenderRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")

	var xlsx bool
	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a run, the latest when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(app *bootstrap.App) error {
				var (
					result *domain.AnalysisResult
					err    error
				)
				if len(args) == 1 {
					result, err = app.Analysis.Get(cmd.Context(), args[0])
				} else {
					result, err = app.Analysis.Latest(cmd.Context())
				}
				if err != nil {
					return err
				}
				return printAnalysis(cmd, app, result, xlsx)
			})
		},
	}
	show.Flags().BoolVar(&xlsx, "xlsx", false, "write the analysis workbook")

	cmd.AddCommand(list, show)
	return cmd
}
