package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Extractor produces raw records for a single platform
type Extractor interface {
	Platform() Platform
	Extract(ctx context.Context) ([]RawRecord, error)
}

// SnapshotStore persists raw scrape snapshots
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) (string, error)
	SavePlatform(ctx context.Context, platform Platform, at time.Time, records []RawRecord) (string, error)
	LoadLatest(ctx context.Context) (*Snapshot, error)
}

// AnalysisRepository persists analysis runs
type AnalysisRepository interface {
	Save(ctx context.Context, result *AnalysisResult) error
	Get(ctx context.Context, runID string) (*AnalysisResult, error)
	Latest(ctx context.Context) (*AnalysisResult, error)
	List(ctx context.Context, limit int) ([]AnalysisSummary, error)
}
