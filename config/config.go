package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Scraper   ScraperConfig
	Matching  MatchingConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Report    ReportConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ScraperConfig holds configuration for platform scraping
type ScraperConfig struct {
	UserAgent         string           `mapstructure:"user_agent"`
	Timeout           time.Duration    `mapstructure:"timeout"`
	MaxProducts       int              `mapstructure:"max_products"`
	RequestsPerSecond float64          `mapstructure:"requests_per_second"`
	MaxRetries        int              `mapstructure:"max_retries"`
	Schedule          string           `mapstructure:"schedule"` // cron spec, empty disables
	Platforms         []PlatformConfig `mapstructure:"platforms"`
}

// PlatformConfig describes one platform's listing page
type PlatformConfig struct {
	Name      string          `mapstructure:"name"`
	URL       string          `mapstructure:"url"`
	Selectors SelectorsConfig `mapstructure:"selectors"`
}

// SelectorsConfig holds CSS selectors for listing fields
type SelectorsConfig struct {
	Product string `mapstructure:"product"`
	Name    string `mapstructure:"name"`
	Brand   string `mapstructure:"brand"`
	Weight  string `mapstructure:"weight"`
	Price   string `mapstructure:"price"`
}

// MatchingConfig holds configuration for cross-platform matching
type MatchingConfig struct {
	Threshold      float64 `mapstructure:"threshold"`
	CandidateLimit int     `mapstructure:"candidate_limit"`
	KeyOrder       string  `mapstructure:"key_order"` // "discovery" or "sorted"
	MinWeightGrams float64 `mapstructure:"min_weight_grams"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	Driver  string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN     string `mapstructure:"dsn"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Platforms returns the configured platform names in order
func (c *Config) Platforms() []string {
	names := make([]string, len(c.Scraper.Platforms))
	for i, p := range c.Scraper.Platforms {
		names[i] = p.Name
	}
	return names
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/breadlens/")

	// Environment variable settings
	v.SetEnvPrefix("BREADLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	// Scraper defaults
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.max_products", 30)
	v.SetDefault("scraper.requests_per_second", 0.5)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.schedule", "")
	v.SetDefault("scraper.platforms", defaultPlatforms)

	// Matching defaults
	v.SetDefault("matching.threshold", 80)
	v.SetDefault("matching.candidate_limit", 10)
	v.SetDefault("matching.key_order", "discovery")
	v.SetDefault("matching.min_weight_grams", 100)

	// Storage defaults
	v.SetDefault("storage.data_dir", "data/raw")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "data/breadlens.db")

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Report defaults
	v.SetDefault("report.output_dir", "data/processed")
}

// defaultPlatforms are the listing pages scraped when no config file names any
var defaultPlatforms = []map[string]any{
	{
		"name": "blinkit",
		"url":  "https://blinkit.com/s/?q=bread",
		"selectors": map[string]any{
			"product": `[class*="tw-relative tw-flex"]`,
			"name":    `[class*="tw-mb-1.5"]`,
			"weight":  `[class*="tw-text-200 tw-font-medium"]`,
			"price":   `[class*="tw-flex tw-items-center tw-justify-between"]`,
		},
	},
	{
		"name": "zepto",
		"url":  "https://www.zeptonow.com/search?query=bread",
		"selectors": map[string]any{
			"product": `[class*="c5SZXs"]`,
			"name":    `[class*="cQAjo6"]`,
			"weight":  `[class*="cyNbxx"]`,
			"price":   `[class*="cLeSKJ"]`,
		},
	},
	{
		"name": "bbnow",
		"url":  "https://www.bigbasket.com/ps/?q=breads&nc=as",
		"selectors": map[string]any{
			"product": `[class*="PaginateItems"]`,
			"name":    `[class*="break-words"]`,
			"brand":   `[class*="BrandName"]`,
			"weight":  `[class*="py-1.5"]`,
			"price":   `[class*="Pricing"]`,
		},
	},
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Matching.Threshold < 0 || config.Matching.Threshold > 100 {
		return fmt.Errorf("matching threshold must be between 0 and 100, got: %v", config.Matching.Threshold)
	}

	if config.Matching.KeyOrder != "discovery" && config.Matching.KeyOrder != "sorted" {
		return fmt.Errorf("matching key order must be 'discovery' or 'sorted', got: %s", config.Matching.KeyOrder)
	}

	if config.Storage.Driver != "sqlite" && config.Storage.Driver != "postgres" {
		return fmt.Errorf("storage driver must be 'sqlite' or 'postgres', got: %s", config.Storage.Driver)
	}

	if config.Storage.DSN == "" {
		return fmt.Errorf("storage DSN is required (set BREADLENS_STORAGE_DSN)")
	}

	if len(config.Scraper.Platforms) == 0 {
		return fmt.Errorf("at least one scraper platform is required")
	}

	seen := make(map[string]bool, len(config.Scraper.Platforms))
	for i, p := range config.Scraper.Platforms {
		if p.Name == "" {
			return fmt.Errorf("scraper platform %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("scraper platform %q is configured twice", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}
