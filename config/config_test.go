package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("BREADLENS_SERVER_PORT")
		os.Unsetenv("BREADLENS_SERVER_ENVIRONMENT")
		os.Unsetenv("BREADLENS_RATELIMIT_PER_IP")
		os.Unsetenv("BREADLENS_LOGGING_LEVEL")
		os.Unsetenv("BREADLENS_SCRAPER_MAX_PRODUCTS")
		os.Unsetenv("BREADLENS_SCRAPER_TIMEOUT")
		os.Unsetenv("BREADLENS_SCRAPER_SCHEDULE")
		os.Unsetenv("BREADLENS_MATCHING_THRESHOLD")
		os.Unsetenv("BREADLENS_MATCHING_KEY_ORDER")
		os.Unsetenv("BREADLENS_STORAGE_DRIVER")
		os.Unsetenv("BREADLENS_STORAGE_DSN")
		os.Unsetenv("BREADLENS_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Scraper.MaxProducts != 30 {
			t.Errorf("Scraper.MaxProducts = %d, want 30", cfg.Scraper.MaxProducts)
		}
		if cfg.Scraper.Timeout != 30*time.Second {
			t.Errorf("Scraper.Timeout = %v, want 30s", cfg.Scraper.Timeout)
		}
		if cfg.Matching.Threshold != 80 {
			t.Errorf("Matching.Threshold = %v, want 80", cfg.Matching.Threshold)
		}
		if cfg.Matching.CandidateLimit != 10 {
			t.Errorf("Matching.CandidateLimit = %d, want 10", cfg.Matching.CandidateLimit)
		}
		if cfg.Matching.KeyOrder != "discovery" {
			t.Errorf("Matching.KeyOrder = %s, want discovery", cfg.Matching.KeyOrder)
		}
		if cfg.Storage.Driver != "sqlite" {
			t.Errorf("Storage.Driver = %s, want sqlite", cfg.Storage.Driver)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}

		platforms := cfg.Platforms()
		if len(platforms) != 3 || platforms[0] != "blinkit" || platforms[1] != "zepto" || platforms[2] != "bbnow" {
			t.Errorf("Platforms() = %v, want [blinkit zepto bbnow]", platforms)
		}
		bbnow := cfg.Scraper.Platforms[2]
		if bbnow.Selectors.Brand == "" || bbnow.Selectors.Product == "" {
			t.Errorf("bbnow selectors not decoded: %+v", bbnow.Selectors)
		}
		if cfg.Scraper.Platforms[0].Selectors.Brand != "" {
			t.Errorf("blinkit brand selector = %q, want empty", cfg.Scraper.Platforms[0].Selectors.Brand)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BREADLENS_SERVER_PORT", "9090")
		os.Setenv("BREADLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("BREADLENS_RATELIMIT_PER_IP", "200")
		os.Setenv("BREADLENS_LOGGING_LEVEL", "debug")
		os.Setenv("BREADLENS_SCRAPER_MAX_PRODUCTS", "50")
		os.Setenv("BREADLENS_SCRAPER_SCHEDULE", "0 */6 * * *")
		os.Setenv("BREADLENS_MATCHING_THRESHOLD", "90")
		os.Setenv("BREADLENS_MATCHING_KEY_ORDER", "sorted")
		os.Setenv("BREADLENS_STORAGE_DRIVER", "postgres")
		os.Setenv("BREADLENS_STORAGE_DSN", "postgres://localhost/breadlens?sslmode=disable")
		os.Setenv("BREADLENS_CACHE_TTL", "24h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
		}
		if cfg.Scraper.MaxProducts != 50 {
			t.Errorf("Scraper.MaxProducts = %d, want 50", cfg.Scraper.MaxProducts)
		}
		if cfg.Scraper.Schedule != "0 */6 * * *" {
			t.Errorf("Scraper.Schedule = %s, want 0 */6 * * *", cfg.Scraper.Schedule)
		}
		if cfg.Matching.Threshold != 90 {
			t.Errorf("Matching.Threshold = %v, want 90", cfg.Matching.Threshold)
		}
		if cfg.Matching.KeyOrder != "sorted" {
			t.Errorf("Matching.KeyOrder = %s, want sorted", cfg.Matching.KeyOrder)
		}
		if cfg.Storage.Driver != "postgres" {
			t.Errorf("Storage.Driver = %s, want postgres", cfg.Storage.Driver)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("fails validation for invalid key order", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BREADLENS_MATCHING_KEY_ORDER", "random")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid key order")
		}
		if err != nil && err.Error() != "invalid configuration: matching key order must be 'discovery' or 'sorted', got: random" {
			t.Errorf("Load() error = %v, want key order error", err)
		}
	})

	t.Run("fails validation for invalid storage driver", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("BREADLENS_STORAGE_DRIVER", "mysql")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid storage driver")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file
		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		// Clear any existing values
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		// Cleanup
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("skips empty lines and comments", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Create .env file with various formats
		envContent := `
# This is a comment
   # This is also a comment

TEST_SKIP_1=value1

TEST_SKIP_2=value2
# TEST_COMMENTED=should_not_load
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
		os.Unsetenv("TEST_COMMENTED")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_SKIP_2") != "value2" {
			t.Errorf("TEST_SKIP_2 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		// Save current directory
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		// Create temp directory
		tempDir := t.TempDir()
		os.Chdir(tempDir)

		// Set existing env var
		os.Setenv("TEST_OVERRIDE", "existing-value")

		// Create .env file that tries to override
		envContent := "TEST_OVERRIDE=new-value"
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		// Should still have original value
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func validConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Platforms: []PlatformConfig{{Name: "blinkit"}, {Name: "zepto"}},
		},
		Matching: MatchingConfig{Threshold: 80, KeyOrder: "discovery"},
		Storage:  StorageConfig{Driver: "sqlite", DSN: "data/breadlens.db"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for out of range threshold", func(t *testing.T) {
		for _, threshold := range []float64{-1, 101} {
			cfg := validConfig()
			cfg.Matching.Threshold = threshold
			if err := validate(cfg); err == nil {
				t.Errorf("validate() error = nil, want error for threshold %v", threshold)
			}
		}
	})

	t.Run("fails when DSN is empty", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.DSN = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty DSN")
		}
	})

	t.Run("fails without platforms", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scraper.Platforms = nil
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for no platforms")
		}
	})

	t.Run("fails for unnamed platform", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scraper.Platforms = append(cfg.Scraper.Platforms, PlatformConfig{URL: "https://example.test"})
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for unnamed platform")
		}
	})

	t.Run("fails for duplicate platform", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scraper.Platforms = append(cfg.Scraper.Platforms, PlatformConfig{Name: "zepto"})
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for duplicate platform")
		}
	})
}
