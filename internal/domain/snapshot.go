package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ScrapedProduct is a listing as stored in a snapshot file
type ScrapedProduct struct {
	Name   string `json:"name"`
	Brand  string `json:"brand,omitempty"`
	Weight string `json:"weight"`
	Price  string `json:"price"`
}

// UnmarshalJSON accepts weight and price either as text or as bare numbers.
// Numeric prices are rupee amounts and numeric weights are grams.
func (p *ScrapedProduct) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string          `json:"name"`
		Brand  string          `json:"brand"`
		Weight json.RawMessage `json:"weight"`
		Price  json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	weight, err := textOrNumber(raw.Weight, "%s g")
	if err != nil {
		return fmt.Errorf("weight: %w", err)
	}
	price, err := textOrNumber(raw.Price, "₹%s")
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	*p = ScrapedProduct{Name: raw.Name, Brand: raw.Brand, Weight: weight, Price: price}
	return nil
}

func textOrNumber(data json.RawMessage, numberFormat string) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return fmt.Sprintf(numberFormat, strconv.FormatFloat(n, 'f', -1, 64)), nil
}

// PlatformProducts is one platform's section of a combined snapshot
type PlatformProducts struct {
	ProductsCount int              `json:"products_count"`
	Products      []ScrapedProduct `json:"products"`
}

// ScrapingSession describes when a snapshot was taken
type ScrapingSession struct {
	Timestamp         time.Time `json:"timestamp"`
	ScrapingTimestamp string    `json:"scraping_timestamp"`
	TotalProducts     int       `json:"total_products"`
}

// Layouts accepted for session timestamps; files written by other tools may
// carry a naive local timestamp
var sessionTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "20060102_150405"}

// UnmarshalJSON accepts RFC 3339 and naive ISO 8601 session timestamps
func (s *ScrapingSession) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp         string `json:"timestamp"`
		ScrapingTimestamp string `json:"scraping_timestamp"`
		TotalProducts     int    `json:"total_products"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ScrapingSession{ScrapingTimestamp: raw.ScrapingTimestamp, TotalProducts: raw.TotalProducts}
	if raw.Timestamp == "" {
		return nil
	}
	for _, layout := range sessionTimeLayouts {
		if ts, err := time.Parse(layout, raw.Timestamp); err == nil {
			s.Timestamp = ts
			return nil
		}
	}
	return fmt.Errorf("unrecognized session timestamp %q", raw.Timestamp)
}

// Snapshot is the combined raw output of one scrape run across all platforms
type Snapshot struct {
	ScrapingSession ScrapingSession               `json:"scraping_session"`
	Platforms       map[Platform]PlatformProducts `json:"platforms"`
}

// NewSnapshot builds a snapshot from per-platform records
func NewSnapshot(at time.Time, byPlatform map[Platform][]RawRecord) *Snapshot {
	s := &Snapshot{
		ScrapingSession: ScrapingSession{
			Timestamp:         at,
			ScrapingTimestamp: at.Format("20060102_150405"),
		},
		Platforms: make(map[Platform]PlatformProducts, len(byPlatform)),
	}
	for platform, records := range byPlatform {
		products := make([]ScrapedProduct, 0, len(records))
		for _, r := range records {
			products = append(products, ScrapedProduct{
				Name:   r.Name,
				Brand:  r.Brand,
				Weight: r.Weight,
				Price:  r.Price,
			})
		}
		s.Platforms[platform] = PlatformProducts{
			ProductsCount: len(products),
			Products:      products,
		}
		s.ScrapingSession.TotalProducts += len(products)
	}
	return s
}

// Flatten converts the snapshot into one RawRecord per product.
// Platforms are emitted in name order so the result is reproducible.
func (s *Snapshot) Flatten() []RawRecord {
	platforms := make([]Platform, 0, len(s.Platforms))
	for p := range s.Platforms {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	var records []RawRecord
	for _, p := range platforms {
		for _, product := range s.Platforms[p].Products {
			records = append(records, RawRecord{
				Name:     product.Name,
				Brand:    product.Brand,
				Weight:   product.Weight,
				Price:    product.Price,
				Platform: p,
			})
		}
	}
	return records
}

// PlatformSummary describes one platform's share of a scrape
type PlatformSummary struct {
	Platform        Platform `json:"platform"`
	Products        int      `json:"products"`
	Priced          int      `json:"priced"`
	AvgPricePer100g float64  `json:"avgPricePer100g"`
}
