package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/cache"
	"github.com/breadlens/backend/internal/infrastructure/metrics"
)

// memoryRepo is an in-process AnalysisRepository for tests
type memoryRepo struct {
	mu      sync.Mutex
	results []*domain.AnalysisResult
	saveErr error
}

func (r *memoryRepo) Save(_ context.Context, result *domain.AnalysisResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *memoryRepo) Get(_ context.Context, runID string) (*domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.RunID == runID {
			return res, nil
		}
	}
	return nil, domain.ErrAnalysisNotFound
}

func (r *memoryRepo) Latest(_ context.Context) (*domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return nil, domain.ErrAnalysisNotFound
	}
	return r.results[len(r.results)-1], nil
}

func (r *memoryRepo) List(_ context.Context, limit int) ([]domain.AnalysisSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AnalysisSummary
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, summarize(r.results[i]))
	}
	return out, nil
}

func sampleRecords() []domain.RawRecord {
	return []domain.RawRecord{
		{Name: "Britannia Bread 400g", Brand: "Britannia", Weight: "400 g", Price: "₹55", Platform: "blinkit"},
		{Name: "Britannia White Bread", Brand: "BRITANNIA", Weight: "400 g", Price: "₹50", Platform: "zepto"},
		{Name: "Local Loaf", Brand: "Local", Weight: "300 g", Price: "₹40", Platform: "bbnow"},
	}
}

func newTestAnalysisService(repo domain.AnalysisRepository) *AnalysisService {
	svc := NewAnalysisService(nil, repo, AnalysisServiceConfig{}, nil, nil)
	n := 0
	svc.newID = func() string {
		n++
		return "run-" + string(rune('0'+n))
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestAnalysisService_Analyze(t *testing.T) {
	svc := newTestAnalysisService(nil)

	result, err := svc.Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 3, result.InputCount)
	assert.Equal(t, domain.DefaultPlatforms, result.Platforms)
	require.Len(t, result.Normalized, 3)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, "britannia_britannia bread 400g", result.Groups[0].Key)
	assert.Len(t, result.Groups[0].Members, 2)
	assert.Equal(t, "local_local loaf", result.Groups[1].Key)

	require.Len(t, result.Deals, 2)
	assert.False(t, result.Deals[0].IsBestDeal)
	assert.InDelta(t, 1.25, result.Deals[0].SavingsOpportunity, 1e-9)
	assert.True(t, result.Deals[1].IsBestDeal)
	assert.Equal(t, domain.Platform("zepto"), result.Deals[1].Platform)

	require.Len(t, result.Comparison, 2)
	assert.True(t, result.Comparison[0].IsComparable)
	assert.False(t, result.Comparison[1].IsComparable)
	assert.Equal(t, 1, result.Comparison[1].PlatformsAvailable)

	assert.Equal(t, map[domain.Platform]int{"zepto": 1}, result.Insights.BestDealsCount)
	assert.InDelta(t, 1.25, result.Insights.MaxSavingsOpportunity, 1e-9)

	counts := domain.CountByCode(result.Diagnostics)
	assert.Equal(t, 1, counts[domain.CodeGroupNotComparable])
}

func TestAnalysisService_Analyze_Errors(t *testing.T) {
	svc := newTestAnalysisService(nil)

	_, err := svc.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoRecords)

	records := sampleRecords()
	records[1].Platform = ""
	_, err = svc.Analyze(context.Background(), records)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalysisService_Analyze_AllRecordsDropped(t *testing.T) {
	svc := newTestAnalysisService(nil)

	result, err := svc.Analyze(context.Background(), []domain.RawRecord{
		{Name: "Bun", Weight: "50 g", Price: "₹10", Platform: "zepto"},
		{Name: "", Weight: "400 g", Price: "₹40", Platform: "zepto"},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Normalized)
	assert.Empty(t, result.Groups)
	assert.Empty(t, result.Deals)
	assert.Empty(t, result.Comparison)
	assert.Len(t, result.Diagnostics, 2)
}

func TestAnalysisService_Analyze_UnknownPlatformGetsColumn(t *testing.T) {
	svc := newTestAnalysisService(nil)
	records := append(sampleRecords(), domain.RawRecord{
		Name: "Britannia Bread 400g", Brand: "Britannia", Weight: "400 g", Price: "₹52", Platform: "instamart",
	})

	result, err := svc.Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []domain.Platform{"blinkit", "zepto", "bbnow", "instamart"}, result.Platforms)
	_, ok := result.Comparison[0].Slots["instamart"]
	assert.True(t, ok)
}

func TestAnalysisService_Analyze_Cached(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	defer c.Close()
	svc := NewAnalysisService(c, nil, AnalysisServiceConfig{CacheTTL: time.Minute}, nil, nil)

	first, err := svc.Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Size())
}

func TestAnalysisService_Analyze_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewAnalysisService(nil, nil, AnalysisServiceConfig{}, nil, metrics.New(reg))

	_, err := svc.Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)

	expected := `
# HELP breadlens_product_groups Product groups produced by the last analysis
# TYPE breadlens_product_groups gauge
breadlens_product_groups 2
# HELP breadlens_comparable_groups Product groups carried by two or more platforms in the last analysis
# TYPE breadlens_comparable_groups gauge
breadlens_comparable_groups 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"breadlens_product_groups", "breadlens_comparable_groups"))
}

func TestAnalysisService_History(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestAnalysisService(repo)
	ctx := context.Background()

	_, err := svc.Latest(ctx)
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)

	first, err := svc.Analyze(ctx, sampleRecords())
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, sampleRecords()[:2])
	require.NoError(t, err)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)

	got, err := svc.Get(ctx, first.RunID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, got.RunID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	summaries, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second.RunID, summaries[0].RunID)
	assert.Equal(t, 2, summaries[1].GroupCount)
}

func TestAnalysisService_PersistFailureDoesNotFailRun(t *testing.T) {
	repo := &memoryRepo{saveErr: errors.New("disk full")}
	svc := newTestAnalysisService(repo)
	ctx := context.Background()

	result, err := svc.Analyze(ctx, sampleRecords())
	require.NoError(t, err)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Same(t, result, latest)
}

func TestAnalysisService_ListWithoutRepository(t *testing.T) {
	svc := newTestAnalysisService(nil)
	ctx := context.Background()

	summaries, err := svc.List(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	_, err = svc.Analyze(ctx, sampleRecords())
	require.NoError(t, err)

	summaries, err = svc.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].InputCount)
	assert.Equal(t, 2, summaries[0].DealCount)
}
