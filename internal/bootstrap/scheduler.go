package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/breadlens/backend/internal/infrastructure/logger"
)

// NewScheduler registers the periodic scrape-and-analyze job. It returns nil
// when no schedule is configured. The caller starts and stops the cron.
func (a *App) NewScheduler(ctx context.Context) (*cron.Cron, error) {
	spec := a.Config.Scraper.Schedule
	if spec == "" {
		return nil, nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	var running atomic.Bool
	_, err := c.AddFunc(spec, func() {
		// skip a tick while the previous scrape is still running
		if !running.CompareAndSwap(false, true) {
			a.Log.Warn("scheduled scrape skipped, previous run still active")
			return
		}
		defer running.Store(false)

		report, result, err := a.ScrapeAndAnalyze(ctx)
		if err != nil {
			a.Log.Error("scheduled scrape failed", logger.Error(err))
			return
		}
		a.Log.Info("scheduled scrape complete",
			logger.String("snapshot", report.CombinedPath),
			logger.String("run_id", result.RunID),
			logger.Int("groups", len(result.Groups)))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scrape schedule %q: %w", spec, err)
	}
	return c, nil
}
