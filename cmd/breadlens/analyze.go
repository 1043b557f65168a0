package main

import (
	"github.com/spf13/cobra"

	"github.com/breadlens/backend/internal/bootstrap"
	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/storage/snapshot"
)

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		input string
		xlsx  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare prices in a snapshot or CSV export",
		Long: `Analyze reconciles listings across platforms and prints the comparison
table and insights. Without --input the newest saved snapshot is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(app *bootstrap.App) error {
				var records []domain.RawRecord
				if input != "" {
					var err error
					if records, err = snapshot.LoadRecords(input); err != nil {
						return err
					}
				} else {
					snap, err := app.Snapshots.LoadLatest(cmd.Context())
					if err != nil {
						return err
					}
					records = snap.Flatten()
				}

				result, err := app.Analysis.Analyze(cmd.Context(), records)
				if err != nil {
					return err
				}
				return printAnalysis(cmd, app, result, xlsx)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "snapshot JSON or CSV export to analyze")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write the analysis workbook")
	return cmd
}
