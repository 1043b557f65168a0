package usecase

import (
	"context"
	"testing"

	"github.com/breadlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyed(platform domain.Platform, keys ...string) []domain.NormalizedRecord {
	records := make([]domain.NormalizedRecord, len(keys))
	for i, k := range keys {
		records[i] = domain.NormalizedRecord{Name: k, ProductKey: k, Platform: platform, PricePer100g: 10}
	}
	return records
}

func groupKeys(g domain.ProductGroup) []string {
	var keys []string
	for _, m := range g.Members {
		keys = append(keys, m.ProductKey)
	}
	return keys
}

func TestNewMatchingService(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{}, nil)
		assert.Equal(t, 80.0, svc.threshold)
		assert.Equal(t, 10, svc.candidateLimit)
		assert.Equal(t, KeyOrderDiscovery, svc.keyOrder)
		assert.NotNil(t, svc.log)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{Threshold: 90, CandidateLimit: 3, KeyOrder: KeyOrderSorted}, nil)
		assert.Equal(t, 90.0, svc.threshold)
		assert.Equal(t, 3, svc.candidateLimit)
		assert.Equal(t, KeyOrderSorted, svc.keyOrder)
	})

	t.Run("unknown key order falls back to discovery", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{KeyOrder: "random"}, nil)
		assert.Equal(t, KeyOrderDiscovery, svc.keyOrder)
	})
}

func TestGroup_Empty(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, nil)

	result, err := svc.Group(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Groups)
	assert.Empty(t, result.Records)
}

func TestGroup_SimilarKeysMerge(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, nil)
	records := append(
		keyed("blinkit", "britannia_britannia bread 400g", "local_local loaf"),
		keyed("zepto", "britannia_britannia white bread")...,
	)

	result, err := svc.Group(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, 0, result.Groups[0].ID)
	assert.Equal(t, "britannia_britannia bread 400g", result.Groups[0].Key)
	assert.ElementsMatch(t,
		[]string{"britannia_britannia bread 400g", "britannia_britannia white bread"},
		groupKeys(result.Groups[0]))
	assert.Equal(t, []string{"local_local loaf"}, groupKeys(result.Groups[1]))

	require.Len(t, result.Records, 3)
	assert.Equal(t, 0, result.Records[0].GroupID)
	assert.Equal(t, 1, result.Records[1].GroupID)
	assert.Equal(t, 0, result.Records[2].GroupID)
}

func TestGroup_Reflexive(t *testing.T) {
	svc := NewMatchingService(MatchConfig{Threshold: 100}, nil)
	records := keyed("zepto", "a_one", "b_two", "c_three", "a_one")

	result, err := svc.Group(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, result.Groups, 3)
	for _, r := range result.Records {
		assert.Equal(t, r.ProductKey, result.Groups[r.GroupID].Key)
	}
	assert.Len(t, result.Groups[0].Members, 2)
}

func TestGroup_SameKeyAlwaysSameGroup(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, nil)
	records := append(keyed("zepto", "modern_milk bread"), keyed("bbnow", "modern_milk bread")...)

	result, err := svc.Group(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []domain.Platform{"zepto", "bbnow"}, result.Groups[0].Platforms())
}

func TestGroup_OverlapLastMatchSetWins(t *testing.T) {
	// bread~breads (91) and breads~breadss (92) but bread!~breadss (83)
	svc := NewMatchingService(MatchConfig{Threshold: 85}, nil)

	result, err := svc.Group(context.Background(), keyed("zepto", "bread", "breads", "breadss"))
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, []string{"bread"}, groupKeys(result.Groups[0]))
	assert.Equal(t, []string{"breads", "breadss"}, groupKeys(result.Groups[1]))
	assert.Equal(t, "breads", result.Groups[1].Key)

	counts := domain.CountByCode(result.Diagnostics)
	assert.Positive(t, counts[domain.CodeOverlappingMatch])
}

func TestGroup_KeyOrderChangesOverlapResolution(t *testing.T) {
	reversed := keyed("zepto", "breadss", "breads", "bread")

	discovery := NewMatchingService(MatchConfig{Threshold: 85}, nil)
	result, err := discovery.Group(context.Background(), reversed)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 0, result.Groups[0].ID)
	assert.Equal(t, "bread", result.Groups[0].Key)
	assert.Len(t, result.Groups[0].Members, 3)

	sorted := NewMatchingService(MatchConfig{Threshold: 85, KeyOrder: KeyOrderSorted}, nil)
	result, err = sorted.Group(context.Background(), reversed)
	require.NoError(t, err)
	assert.Len(t, result.Groups, 2)
}

func TestGroup_Deterministic(t *testing.T) {
	svc := NewMatchingService(MatchConfig{Threshold: 85}, nil)
	records := keyed("zepto", "bread", "breads", "breadss", "modern_milk bread", "modern_milky bread")

	first, err := svc.Group(context.Background(), records)
	require.NoError(t, err)
	second, err := svc.Group(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, first.Groups, second.Groups)
	assert.Equal(t, first.Records, second.Records)
}

func TestGroup_CandidateLimit(t *testing.T) {
	// With a limit of one only the key itself is ever considered
	svc := NewMatchingService(MatchConfig{CandidateLimit: 1}, nil)

	result, err := svc.Group(context.Background(), keyed("zepto", "britannia_white bread", "britannia_bread white"))
	require.NoError(t, err)
	assert.Len(t, result.Groups, 2)
}

func TestGroup_RespectsContextCancellation(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Group(ctx, keyed("zepto", "a_bread"))
	assert.ErrorIs(t, err, context.Canceled)
}
