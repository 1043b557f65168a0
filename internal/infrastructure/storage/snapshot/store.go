package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

const (
	combinedPrefix  = "combined_bread_data_"
	timestampLayout = "20060102_150405"
)

// platformFile is the layout of a single-platform snapshot file
type platformFile struct {
	Platform          domain.Platform         `json:"platform"`
	Timestamp         time.Time               `json:"timestamp"`
	ScrapingTimestamp string                  `json:"scraping_timestamp"`
	ProductsCount     int                     `json:"products_count"`
	Products          []domain.ScrapedProduct `json:"products"`
}

// FileStore keeps raw scrape snapshots as JSON files in one directory
type FileStore struct {
	dir string
	log logger.Logger
}

// NewFileStore creates the directory if needed and returns a store rooted at it
func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FileStore{dir: dir, log: log}, nil
}

// SaveSnapshot writes combined_bread_data_<timestamp>.json and returns its path
func (s *FileStore) SaveSnapshot(_ context.Context, snapshot *domain.Snapshot) (string, error) {
	ts := snapshot.ScrapingSession.ScrapingTimestamp
	if ts == "" {
		ts = snapshot.ScrapingSession.Timestamp.Format(timestampLayout)
	}
	path := filepath.Join(s.dir, combinedPrefix+ts+".json")
	if err := writeJSON(path, snapshot); err != nil {
		return "", err
	}
	s.log.Info("combined snapshot saved",
		logger.String("path", path),
		logger.Int("total_products", snapshot.ScrapingSession.TotalProducts))
	return path, nil
}

// SavePlatform writes <platform>_<timestamp>.json and returns its path
func (s *FileStore) SavePlatform(_ context.Context, platform domain.Platform, at time.Time, records []domain.RawRecord) (string, error) {
	products := make([]domain.ScrapedProduct, 0, len(records))
	for _, r := range records {
		products = append(products, domain.ScrapedProduct{Name: r.Name, Brand: r.Brand, Weight: r.Weight, Price: r.Price})
	}
	ts := at.Format(timestampLayout)
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", platform, ts))
	err := writeJSON(path, platformFile{
		Platform:          platform,
		Timestamp:         at,
		ScrapingTimestamp: ts,
		ProductsCount:     len(products),
		Products:          products,
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("platform snapshot saved", logger.String("path", path), logger.Int("products", len(products)))
	return path, nil
}

// LoadLatest returns the most recent combined snapshot in the directory
func (s *FileStore) LoadLatest(_ context.Context) (*domain.Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, combinedPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(matches) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}
	// Timestamps in the file names sort chronologically
	sort.Strings(matches)
	return Load(matches[len(matches)-1])
}

// Load reads a combined snapshot file
func Load(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	if snap.Platforms == nil {
		return nil, fmt.Errorf("%w: %s has no platforms section", domain.ErrInvalidInput, filepath.Base(path))
	}
	return &snap, nil
}

// writeJSON writes through a temp file so readers never see a partial snapshot
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
