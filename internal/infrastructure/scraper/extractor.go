package scraper

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

const defaultMaxProducts = 30

// Selectors are the CSS selectors locating listing fields on a platform page.
// Field selectors are evaluated relative to each Product node; an empty
// Brand or Weight selector makes the extractor derive the value from the name.
type Selectors struct {
	Product string
	Name    string
	Brand   string
	Weight  string
	Price   string
}

// PlatformConfig describes how to scrape one platform
type PlatformConfig struct {
	Name      domain.Platform
	URL       string
	Selectors Selectors
}

// pageFetcher is the part of Fetcher the extractor needs
type pageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// HTMLExtractor scrapes a platform's listing page with goquery
type HTMLExtractor struct {
	config      PlatformConfig
	fetcher     pageFetcher
	maxProducts int
	log         logger.Logger
}

// NewHTMLExtractor creates an extractor for one platform
func NewHTMLExtractor(config PlatformConfig, fetcher pageFetcher, maxProducts int, log logger.Logger) *HTMLExtractor {
	if maxProducts <= 0 {
		maxProducts = defaultMaxProducts
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &HTMLExtractor{
		config:      config,
		fetcher:     fetcher,
		maxProducts: maxProducts,
		log:         log.With(logger.String("platform", string(config.Name))),
	}
}

// NewExtractors builds one extractor per configured platform. Each platform
// gets its own fetcher, so rate limits apply per host.
func NewExtractors(platforms []PlatformConfig, fetcherConfig FetcherConfig, maxProducts int, log logger.Logger) ([]domain.Extractor, error) {
	if log == nil {
		log = logger.NewNop()
	}
	extractors := make([]domain.Extractor, 0, len(platforms))
	for _, p := range platforms {
		if p.Name == "" || p.URL == "" || p.Selectors.Product == "" || p.Selectors.Name == "" || p.Selectors.Price == "" {
			return nil, fmt.Errorf("%w: %q needs a url and product, name and price selectors",
				domain.ErrPlatformNotConfigured, p.Name)
		}
		fetcher := NewFetcher(fetcherConfig, log.With(logger.String("platform", string(p.Name))))
		extractors = append(extractors, NewHTMLExtractor(p, fetcher, maxProducts, log))
	}
	return extractors, nil
}

// Platform returns the platform this extractor scrapes
func (e *HTMLExtractor) Platform() domain.Platform {
	return e.config.Name
}

// Extract fetches the listing page and returns its bread listings
func (e *HTMLExtractor) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	body, err := e.fetcher.Fetch(ctx, e.config.URL)
	if err != nil {
		return nil, err
	}
	return e.Parse(body)
}

// Parse extracts raw records from a listing page body. Only the first
// maxProducts product nodes are considered, before the bread filter.
func (e *HTMLExtractor) Parse(body []byte) ([]domain.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	sel := e.config.Selectors
	nodes := doc.Find(sel.Product)
	e.log.Debug("product nodes found", logger.Int("count", nodes.Length()))

	var records []domain.RawRecord
	skipped := 0
	nodes.EachWithBreak(func(i int, node *goquery.Selection) bool {
		if i >= e.maxProducts {
			return false
		}

		record, ok := e.parseProduct(node)
		if !ok {
			skipped++
			return true
		}
		records = append(records, record)
		return true
	})

	e.log.Info("listing page parsed",
		logger.Int("records", len(records)),
		logger.Int("skipped", skipped))

	return records, nil
}

func (e *HTMLExtractor) parseProduct(node *goquery.Selection) (domain.RawRecord, bool) {
	sel := e.config.Selectors

	name := cleanText(node.Find(sel.Name).First().Text())
	if name == "" {
		return domain.RawRecord{}, false
	}

	var brand string
	if sel.Brand != "" {
		brand = cleanText(node.Find(sel.Brand).First().Text())
	} else {
		brand = BrandFromName(name)
		name = RemoveBrand(name, brand)
	}

	var weight string
	if sel.Weight != "" {
		weight = cleanText(node.Find(sel.Weight).First().Text())
	}
	if weight == "" {
		weight = WeightFromName(name)
	}

	if !IsBread(name) {
		e.log.Debug("skipping non-bread listing", logger.String("name", name))
		return domain.RawRecord{}, false
	}

	return domain.RawRecord{
		Name:     name,
		Brand:    brand,
		Weight:   weight,
		Price:    cleanText(node.Find(sel.Price).First().Text()),
		Platform: e.config.Name,
	}, true
}
