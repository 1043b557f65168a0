// Package bootstrap wires configuration into the services shared by the
// server and the command line tool.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/breadlens/backend/config"
	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/cache"
	"github.com/breadlens/backend/internal/infrastructure/logger"
	"github.com/breadlens/backend/internal/infrastructure/metrics"
	"github.com/breadlens/backend/internal/infrastructure/scraper"
	"github.com/breadlens/backend/internal/infrastructure/storage/snapshot"
	"github.com/breadlens/backend/internal/infrastructure/storage/sqlstore"
	"github.com/breadlens/backend/internal/usecase"
)

const cacheCleanupInterval = 10 * time.Minute

// App holds the long-lived services built from configuration
type App struct {
	Config    *config.Config
	Log       logger.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Snapshots *snapshot.FileStore
	Runs      *sqlstore.Store
	Analysis  *usecase.AnalysisService
	Scraper   *usecase.ScrapeService

	cache *cache.MemoryCache
}

// NewLogger creates the process logger from configuration
func NewLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
}

// New builds every service. Close must be called to release the database
// and the cache janitor.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	snapshots, err := snapshot.NewFileStore(cfg.Storage.DataDir, log)
	if err != nil {
		return nil, err
	}

	if err := ensureSQLiteDir(cfg.Storage.Driver, cfg.Storage.DSN); err != nil {
		return nil, err
	}
	runs, err := sqlstore.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("analysis store: %w", err)
	}

	fetcherConfig := scraper.FetcherConfig{
		UserAgent:         cfg.Scraper.UserAgent,
		Timeout:           cfg.Scraper.Timeout,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		MaxRetries:        cfg.Scraper.MaxRetries,
	}
	extractors, err := scraper.NewExtractors(platformConfigs(cfg), fetcherConfig, cfg.Scraper.MaxProducts, log)
	if err != nil {
		runs.Close()
		return nil, err
	}

	memoryCache := cache.NewMemoryCache(cacheCleanupInterval)

	analysis := usecase.NewAnalysisService(
		memoryCache,
		runs,
		usecase.AnalysisServiceConfig{
			CacheTTL:  cfg.Cache.TTL,
			Platforms: platformNames(cfg),
			Match: usecase.MatchConfig{
				Threshold:      cfg.Matching.Threshold,
				CandidateLimit: cfg.Matching.CandidateLimit,
				KeyOrder:       cfg.Matching.KeyOrder,
			},
			MinWeightGrams: cfg.Matching.MinWeightGrams,
		},
		log,
		m,
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Registry:  reg,
		Metrics:   m,
		Snapshots: snapshots,
		Runs:      runs,
		Analysis:  analysis,
		Scraper:   usecase.NewScrapeService(extractors, snapshots, log, m),
		cache:     memoryCache,
	}, nil
}

// Close releases the database and stops the cache janitor
func (a *App) Close() error {
	a.cache.Close()
	return a.Runs.Close()
}

// ScrapeAndAnalyze runs a scrape and analyzes whatever it collected. A failed
// snapshot save is logged and does not block the analysis.
func (a *App) ScrapeAndAnalyze(ctx context.Context) (*usecase.ScrapeReport, *domain.AnalysisResult, error) {
	report, err := a.Scraper.Run(ctx)
	if report == nil {
		return nil, nil, err
	}
	if err != nil {
		a.Log.Warn("snapshot not saved", logger.Error(err))
	}

	if report.Snapshot.ScrapingSession.TotalProducts == 0 {
		return report, nil, fmt.Errorf("%w: every platform came back empty", domain.ErrNoRecords)
	}

	result, err := a.Analysis.Analyze(ctx, report.Snapshot.Flatten())
	if err != nil {
		return report, nil, fmt.Errorf("analyze scrape: %w", err)
	}
	return report, result, nil
}

func platformConfigs(cfg *config.Config) []scraper.PlatformConfig {
	platforms := make([]scraper.PlatformConfig, 0, len(cfg.Scraper.Platforms))
	for _, p := range cfg.Scraper.Platforms {
		platforms = append(platforms, scraper.PlatformConfig{
			Name: domain.Platform(strings.ToLower(p.Name)),
			URL:  p.URL,
			Selectors: scraper.Selectors{
				Product: p.Selectors.Product,
				Name:    p.Selectors.Name,
				Brand:   p.Selectors.Brand,
				Weight:  p.Selectors.Weight,
				Price:   p.Selectors.Price,
			},
		})
	}
	return platforms
}

func platformNames(cfg *config.Config) []domain.Platform {
	names := cfg.Platforms()
	platforms := make([]domain.Platform, len(names))
	for i, n := range names {
		platforms[i] = domain.Platform(strings.ToLower(n))
	}
	return platforms
}

// ensureSQLiteDir creates the parent directory of a file-backed SQLite DSN
func ensureSQLiteDir(driver, dsn string) error {
	if driver != sqlstore.DriverSQLite || dsn == "" || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	return nil
}
