package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

// Key processing orders for the matcher
const (
	KeyOrderDiscovery = "discovery" // first-seen order in the input
	KeyOrderSorted    = "sorted"    // lexicographic order
)

// Matching defaults
const (
	defaultMatchThreshold = 80.0
	defaultCandidateLimit = 10
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Threshold      float64
	CandidateLimit int
	KeyOrder       string
}

// GroupingResult is the output of a matching pass
type GroupingResult struct {
	Groups      []domain.ProductGroup
	Records     []domain.GroupedRecord
	Diagnostics []domain.Diagnostic
}

// MatchingService groups normalized listings from different platforms into
// product groups by approximate similarity of their product keys
type MatchingService struct {
	threshold      float64
	candidateLimit int
	keyOrder       string
	log            logger.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, log logger.Logger) *MatchingService {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = defaultMatchThreshold
	}

	limit := config.CandidateLimit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	order := config.KeyOrder
	if order != KeyOrderSorted {
		order = KeyOrderDiscovery
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &MatchingService{
		threshold:      threshold,
		candidateLimit: limit,
		keyOrder:       order,
		log:            log,
	}
}

// Group assigns every record to a product group.
//
// Each distinct key collects its top candidates scoring at or above the
// threshold (always including itself); that match-set is identified by its
// smallest key. When a key lands in several match-sets the one processed last
// decides its group, so the result depends on the configured key order.
func (s *MatchingService) Group(ctx context.Context, records []domain.NormalizedRecord) (*GroupingResult, error) {
	keys := s.orderedKeys(records)
	result := &GroupingResult{}
	if len(keys) == 0 {
		return result, nil
	}

	scores := scoreMatrix(keys)

	mapping := make(map[string]string, len(keys))
	var produced []string
	seenGroupKey := make(map[string]bool)

	for i, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		matchSet := s.matchSet(i, keys, scores)
		groupKey := matchSet[0]
		for _, k := range matchSet[1:] {
			if k < groupKey {
				groupKey = k
			}
		}

		if !seenGroupKey[groupKey] {
			seenGroupKey[groupKey] = true
			produced = append(produced, groupKey)
		}

		for _, k := range matchSet {
			if prev, ok := mapping[k]; ok && prev != groupKey {
				result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
					Stage:   domain.StageMatch,
					Level:   domain.LevelInfo,
					Code:    domain.CodeOverlappingMatch,
					Message: fmt.Sprintf("key moved from group %q to %q", prev, groupKey),
					Subject: k,
				})
			}
			mapping[k] = groupKey
		}

		s.log.Debug("match-set built",
			logger.String("key", key),
			logger.String("group_key", groupKey),
			logger.Int("size", len(matchSet)))
	}

	// Identifiers overwritten everywhere get no ID, so IDs stay dense
	referenced := make(map[string]bool, len(mapping))
	for _, gk := range mapping {
		referenced[gk] = true
	}
	ids := make(map[string]int)
	for _, gk := range produced {
		if referenced[gk] {
			ids[gk] = len(ids)
		}
	}

	groups := make([]domain.ProductGroup, len(ids))
	for gk, id := range ids {
		groups[id] = domain.ProductGroup{ID: id, Key: gk}
	}

	result.Records = make([]domain.GroupedRecord, 0, len(records))
	for _, rec := range records {
		id := ids[mapping[rec.ProductKey]]
		groups[id].Members = append(groups[id].Members, rec)
		result.Records = append(result.Records, domain.GroupedRecord{NormalizedRecord: rec, GroupID: id})
	}
	result.Groups = groups

	s.log.Info("product groups created",
		logger.Int("records", len(records)),
		logger.Int("distinct_keys", len(keys)),
		logger.Int("groups", len(groups)))

	return result, nil
}

// orderedKeys returns the distinct product keys in processing order
func (s *MatchingService) orderedKeys(records []domain.NormalizedRecord) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range records {
		if !seen[r.ProductKey] {
			seen[r.ProductKey] = true
			keys = append(keys, r.ProductKey)
		}
	}
	if s.keyOrder == KeyOrderSorted {
		sort.Strings(keys)
	}
	return keys
}

// matchSet returns key i's top candidates that meet the threshold, self first
func (s *MatchingService) matchSet(i int, keys []string, scores [][]float64) []string {
	candidates := make([]int, len(keys))
	for j := range keys {
		candidates[j] = j
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if scores[i][ca] != scores[i][cb] {
			return scores[i][ca] > scores[i][cb]
		}
		return ca == i && cb != i
	})

	if len(candidates) > s.candidateLimit {
		candidates = candidates[:s.candidateLimit]
	}

	matches := make([]string, 0, len(candidates))
	for _, j := range candidates {
		if j == i || scores[i][j] >= s.threshold {
			matches = append(matches, keys[j])
		}
	}
	return matches
}

// scoreMatrix computes the symmetric pairwise similarity of all keys
func scoreMatrix(keys []string) [][]float64 {
	scores := make([][]float64, len(keys))
	for i := range scores {
		scores[i] = make([]float64, len(keys))
		scores[i][i] = 100
	}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			score := TokenSortRatio(keys[i], keys[j])
			scores[i][j] = score
			scores[j][i] = score
		}
	}
	return scores
}
