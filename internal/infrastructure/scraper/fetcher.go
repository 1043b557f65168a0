package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/breadlens/backend/internal/domain"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

// Fetcher defaults
const (
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 0.5
	defaultMaxRetries        = 3
	maxBodyBytes             = 10 << 20
)

// FetcherConfig holds configuration for the page fetcher
type FetcherConfig struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// Fetcher downloads listing pages politely: every request waits on a shared
// rate limiter and transient failures are retried with exponential backoff
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxRetries  int
	rateLimiter *rate.Limiter
	log         logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a new page fetcher
func NewFetcher(config FetcherConfig, log logger.Logger) *Fetcher {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaultRequestsPerSecond
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		userAgent:   config.UserAgent,
		maxRetries:  config.MaxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		log:         log,
		sleep:       sleepContext,
	}
}

// Fetch returns the body of the page at pageURL. 4xx responses other than 429
// are not retried.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, retry, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		f.log.Warn("fetch attempt failed",
			logger.String("url", pageURL),
			logger.Int("attempt", attempt),
			logger.Error(err))

		if attempt < f.maxRetries {
			if err := f.sleep(ctx, exponentialBackoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single GET and reports whether a failure is retryable
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	return body, false, nil
}

// exponentialBackoff returns the wait before the next attempt: 500ms, 1s, 2s...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
