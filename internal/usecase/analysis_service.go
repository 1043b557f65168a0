package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
	"github.com/breadlens/backend/internal/infrastructure/metrics"
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	CacheTTL       time.Duration
	Platforms      []domain.Platform
	Match          MatchConfig
	MinWeightGrams float64
}

// AnalysisService runs the reconciliation pipeline over raw records:
// normalize -> match -> deals -> comparison table + insights
type AnalysisService struct {
	cache      domain.CacheRepository
	repo       domain.AnalysisRepository
	normalizer *Normalizer
	matcher    *MatchingService
	platforms  []domain.Platform
	cacheTTL   time.Duration
	log        logger.Logger
	metrics    *metrics.Metrics

	mu     sync.RWMutex
	latest *domain.AnalysisResult

	now   func() time.Time
	newID func() string
}

// NewAnalysisService creates a new analysis service. cache, repo and m may be nil.
func NewAnalysisService(
	cache domain.CacheRepository,
	repo domain.AnalysisRepository,
	config AnalysisServiceConfig,
	log logger.Logger,
	m *metrics.Metrics,
) *AnalysisService {
	if log == nil {
		log = logger.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	platforms := config.Platforms
	if len(platforms) == 0 {
		platforms = domain.DefaultPlatforms
	}

	return &AnalysisService{
		cache:      cache,
		repo:       repo,
		normalizer: NewNormalizer(NormalizerConfig{MinWeightGrams: config.MinWeightGrams}),
		matcher:    NewMatchingService(config.Match, log),
		platforms:  platforms,
		cacheTTL:   cacheTTL,
		log:        log,
		metrics:    m,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Analyze runs the full pipeline. Bad individual records only shrink the
// output; an empty input or a record without a platform fails the run.
func (s *AnalysisService) Analyze(ctx context.Context, records []domain.RawRecord) (*domain.AnalysisResult, error) {
	if err := validateRecords(records); err != nil {
		return nil, err
	}

	cacheKey := s.generateCacheKey(records)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.log.Debug("analysis served from cache", logger.String("run_id", cached.RunID))
		s.mu.Lock()
		s.latest = cached
		s.mu.Unlock()
		return cached, nil
	}

	start := s.now()
	s.metrics.ObserveStage("input", len(records))

	normalized, diags := s.normalizer.Normalize(records)
	s.metrics.ObserveStage(domain.StageNormalize, len(normalized))
	s.metrics.ObserveDropped(domain.CountByCode(diags))

	grouping, err := s.matcher.Group(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("match products: %w", err)
	}
	diags = append(diags, grouping.Diagnostics...)

	deals, dealDiags := IdentifyDeals(grouping.Groups)
	diags = append(diags, dealDiags...)

	platforms := s.platformsFor(records)
	comparison := BuildComparisonTable(grouping.Groups, deals, platforms)

	result := &domain.AnalysisResult{
		RunID:       s.newID(),
		CreatedAt:   s.now().UTC(),
		InputCount:  len(records),
		Platforms:   platforms,
		Normalized:  normalized,
		Groups:      grouping.Groups,
		Deals:       deals,
		Comparison:  comparison,
		Insights:    GenerateInsights(deals),
		Diagnostics: diags,
	}

	comparable := 0
	for _, row := range comparison {
		if row.IsComparable {
			comparable++
		}
	}
	s.metrics.ObserveGroups(len(grouping.Groups), comparable)
	s.metrics.ObserveAnalysis(s.now().Sub(start))
	s.emitDiagnostics(result)

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.log.Warn("failed to cache analysis", logger.Error(err))
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, result); err != nil {
			s.log.Error("failed to persist analysis", logger.String("run_id", result.RunID), logger.Error(err))
		}
	}

	return result, nil
}

// Latest returns the most recent analysis, preferring the persisted history
func (s *AnalysisService) Latest(ctx context.Context) (*domain.AnalysisResult, error) {
	if s.repo != nil {
		result, err := s.repo.Latest(ctx)
		if err == nil {
			return result, nil
		}
		s.log.Debug("latest analysis not in repository", logger.Error(err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, domain.ErrAnalysisNotFound
	}
	return s.latest, nil
}

// Get returns a persisted analysis by run id
func (s *AnalysisService) Get(ctx context.Context, runID string) (*domain.AnalysisResult, error) {
	if runID == "" {
		return nil, domain.ErrInvalidRequest
	}

	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil && latest.RunID == runID {
		return latest, nil
	}

	if s.repo == nil {
		return nil, domain.ErrAnalysisNotFound
	}
	return s.repo.Get(ctx, runID)
}

// List returns summaries of recent persisted runs
func (s *AnalysisService) List(ctx context.Context, limit int) ([]domain.AnalysisSummary, error) {
	if s.repo == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.latest == nil {
			return nil, nil
		}
		return []domain.AnalysisSummary{summarize(s.latest)}, nil
	}
	return s.repo.List(ctx, limit)
}

func summarize(r *domain.AnalysisResult) domain.AnalysisSummary {
	return domain.AnalysisSummary{
		RunID:      r.RunID,
		CreatedAt:  r.CreatedAt,
		InputCount: r.InputCount,
		GroupCount: len(r.Groups),
		DealCount:  len(r.Deals),
	}
}

// validateRecords rejects input that no amount of per-record filtering can fix
func validateRecords(records []domain.RawRecord) error {
	if len(records) == 0 {
		return domain.ErrNoRecords
	}
	for i, r := range records {
		if r.Platform == "" {
			return fmt.Errorf("%w: record %d (%q) has no platform", domain.ErrInvalidInput, i, r.Name)
		}
	}
	return nil
}

// platformsFor returns the configured platforms followed by any other
// platform present in the input, so no listing loses its column
func (s *AnalysisService) platformsFor(records []domain.RawRecord) []domain.Platform {
	known := make(map[domain.Platform]bool, len(s.platforms))
	platforms := append([]domain.Platform(nil), s.platforms...)
	for _, p := range platforms {
		known[p] = true
	}

	var extra []domain.Platform
	for _, r := range records {
		if !known[r.Platform] {
			known[r.Platform] = true
			extra = append(extra, r.Platform)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(platforms, extra...)
}

// emitDiagnostics writes the run's diagnostics to the structured log
func (s *AnalysisService) emitDiagnostics(result *domain.AnalysisResult) {
	log := s.log.With(logger.String("run_id", result.RunID))
	for _, d := range result.Diagnostics {
		log.Debug(d.Message,
			logger.String("stage", d.Stage),
			logger.String("code", d.Code),
			logger.String("platform", string(d.Platform)),
			logger.String("subject", d.Subject))
	}

	fields := []logger.Field{
		logger.Int("input", result.InputCount),
		logger.Int("normalized", len(result.Normalized)),
		logger.Int("groups", len(result.Groups)),
		logger.Int("deals", len(result.Deals)),
	}
	for code, n := range domain.CountByCode(result.Diagnostics) {
		fields = append(fields, logger.Int(code, n))
	}
	log.Info("analysis complete", fields...)
}

// generateCacheKey fingerprints the input records.
// Format: "analysis:{sha256 of records}"
func (s *AnalysisService) generateCacheKey(records []domain.RawRecord) string {
	data, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "analysis:" + hex.EncodeToString(sum[:])
}

func (s *AnalysisService) getFromCache(ctx context.Context, key string) (*domain.AnalysisResult, error) {
	if s.cache == nil || key == "" {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	result, ok := value.(*domain.AnalysisResult)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return result, nil
}

func (s *AnalysisService) setInCache(ctx context.Context, key string, result *domain.AnalysisResult) error {
	if s.cache == nil || key == "" {
		return nil
	}
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}
