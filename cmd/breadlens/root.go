package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/breadlens/backend/config"
	"github.com/breadlens/backend/internal/bootstrap"
	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/report"
)

const version = "1.0.0"

// cli carries state shared by every subcommand
type cli struct {
	logLevel string
	loadApp  func(ctx context.Context, logLevel string) (*bootstrap.App, error)
}

// newApp loads configuration and builds the services
func newApp(ctx context.Context, logLevel string) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, log)
}

func newRootCmd() *cobra.Command {
	return (&cli{loadApp: newApp}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "breadlens",
		Short:         "Compare bread prices across quick-commerce platforms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "breadlens version %s\n", version)
			},
		},
		c.scrapeCmd(),
		c.analyzeCmd(),
		c.reportCmd(),
	)
	return root
}

// withApp builds the services for one command and closes them afterwards
func (c *cli) withApp(cmd *cobra.Command, fn func(app *bootstrap.App) error) error {
	app, err := c.loadApp(cmd.Context(), c.logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Close()
		_ = app.Log.Sync()
	}()
	return fn(app)
}

// printAnalysis renders a result and optionally writes its workbook
func printAnalysis(cmd *cobra.Command, app *bootstrap.App, result *domain.AnalysisResult, xlsx bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d listings, %d product groups\n", result.RunID, result.InputCount, len(result.Groups))
	report.RenderComparison(out, result)
	report.RenderInsights(out, result)

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(out, "%d listings skipped or flagged (use --log-level=info for details)\n", len(result.Diagnostics))
	}

	if !xlsx {
		return nil
	}
	path, err := report.SaveWorkbook(app.Config.Report.OutputDir, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Workbook saved to %s\n", path)
	return nil
}
