package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
	"github.com/breadlens/backend/internal/infrastructure/metrics"
)

// ScrapeReport is the outcome of one scrape run across all platforms
type ScrapeReport struct {
	Snapshot      *domain.Snapshot
	CombinedPath  string
	PlatformPaths map[domain.Platform]string
	Failures      map[domain.Platform]error
	Diagnostics   []domain.Diagnostic
}

// ScrapeService runs every platform extractor concurrently and merges the
// results into one snapshot. Platforms share nothing, so one platform failing
// only empties its own section.
type ScrapeService struct {
	extractors []domain.Extractor
	store      domain.SnapshotStore
	log        logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewScrapeService creates a scrape service. store and m may be nil.
func NewScrapeService(
	extractors []domain.Extractor,
	store domain.SnapshotStore,
	log logger.Logger,
	m *metrics.Metrics,
) *ScrapeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScrapeService{
		extractors: extractors,
		store:      store,
		log:        log,
		metrics:    m,
		now:        time.Now,
	}
}

type platformResult struct {
	records []domain.RawRecord
	err     error
}

// Run extracts all platforms and saves the snapshot. The report is returned
// even when saving fails so the caller can still analyze what was scraped.
func (s *ScrapeService) Run(ctx context.Context) (*ScrapeReport, error) {
	results := make([]platformResult, len(s.extractors))

	var g errgroup.Group
	for i, ex := range s.extractors {
		g.Go(func() error {
			log := s.log.With(logger.String("platform", string(ex.Platform())))
			log.Info("starting extraction")

			records, err := ex.Extract(ctx)
			if err != nil {
				log.Warn("extraction failed", logger.Error(err))
				results[i] = platformResult{err: err}
				s.metrics.ObserveScrape(string(ex.Platform()), 0, true)
				return nil
			}

			log.Info("extraction complete", logger.Int("records", len(records)))
			results[i] = platformResult{records: records}
			s.metrics.ObserveScrape(string(ex.Platform()), len(records), false)
			return nil
		})
	}
	_ = g.Wait()

	at := s.now()
	byPlatform := make(map[domain.Platform][]domain.RawRecord, len(s.extractors))
	report := &ScrapeReport{
		PlatformPaths: make(map[domain.Platform]string),
		Failures:      make(map[domain.Platform]error),
	}
	for i, ex := range s.extractors {
		p := ex.Platform()
		byPlatform[p] = results[i].records
		if results[i].err != nil {
			report.Failures[p] = results[i].err
			report.Diagnostics = append(report.Diagnostics, domain.Diagnostic{
				Stage:    domain.StageExtract,
				Level:    domain.LevelWarn,
				Code:     domain.CodePlatformFailed,
				Message:  results[i].err.Error(),
				Platform: p,
			})
		}
	}
	report.Snapshot = domain.NewSnapshot(at, byPlatform)

	if s.store == nil {
		return report, nil
	}

	for _, ex := range s.extractors {
		p := ex.Platform()
		path, err := s.store.SavePlatform(ctx, p, at, byPlatform[p])
		if err != nil {
			s.log.Warn("failed to save platform snapshot", logger.String("platform", string(p)), logger.Error(err))
			continue
		}
		report.PlatformPaths[p] = path
	}

	path, err := s.store.SaveSnapshot(ctx, report.Snapshot)
	if err != nil {
		return report, fmt.Errorf("save snapshot: %w", err)
	}
	report.CombinedPath = path

	s.log.Info("scrape complete",
		logger.Int("total_products", report.Snapshot.ScrapingSession.TotalProducts),
		logger.Int("failed_platforms", len(report.Failures)),
		logger.String("path", path))

	return report, nil
}

// SummarizeSnapshot reports per-platform product counts and the mean price
// per 100g over the listings that normalize cleanly, platforms in name order
func SummarizeSnapshot(snapshot *domain.Snapshot) []domain.PlatformSummary {
	normalizer := NewNormalizer(NormalizerConfig{})

	byPlatform := make(map[domain.Platform]*domain.PlatformSummary)
	var order []domain.Platform
	for _, r := range snapshot.Flatten() {
		sum, ok := byPlatform[r.Platform]
		if !ok {
			sum = &domain.PlatformSummary{Platform: r.Platform}
			byPlatform[r.Platform] = sum
			order = append(order, r.Platform)
		}
		sum.Products++
		if rec, _, ok := normalizer.NormalizeRecord(r); ok {
			sum.Priced++
			sum.AvgPricePer100g += rec.PricePer100g
		}
	}
	for p, pp := range snapshot.Platforms {
		if _, ok := byPlatform[p]; !ok && pp.ProductsCount == 0 {
			byPlatform[p] = &domain.PlatformSummary{Platform: p}
			order = append(order, p)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	summaries := make([]domain.PlatformSummary, 0, len(order))
	for _, p := range order {
		sum := *byPlatform[p]
		if sum.Priced > 0 {
			sum.AvgPricePer100g = round2(sum.AvgPricePer100g / float64(sum.Priced))
		}
		summaries = append(summaries, sum)
	}
	return summaries
}
