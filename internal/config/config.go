package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mansionlab/dealscore/internal/scoring"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Scraper  ScraperConfig
	Scoring  ScoringConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// ScraperConfig holds collection-run configuration.
type ScraperConfig struct {
	BaseURL        string
	UserAgent      string
	SearchURLs     []string
	FetchInterval  time.Duration
	MaxSearchPages int
	RecomputePool  int
}

// ScoringConfig holds the per-category weight profile applied to every
// score computation. Defaults to the neutral 1.0 profile.
type ScoringConfig struct {
	Weights scoring.Weights
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "dealscore")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SCRAPER_BASE_URL", "https://suumo.jp")
	v.SetDefault("SCRAPER_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	v.SetDefault("SCRAPER_SEARCH_URLS", "")
	v.SetDefault("SCRAPER_FETCH_INTERVAL", "3s")
	v.SetDefault("SCRAPER_MAX_SEARCH_PAGES", 5)
	v.SetDefault("SCORE_RECOMPUTE_POOL", 4)
	v.SetDefault("SCORE_WEIGHT_PRICE", 1.0)
	v.SetDefault("SCORE_WEIGHT_LOCATION", 1.0)
	v.SetDefault("SCORE_WEIGHT_SPEC", 1.0)
	v.SetDefault("SCORE_WEIGHT_COST", 1.0)
	v.SetDefault("SCORE_WEIGHT_FUTURE", 1.0)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Scraper: ScraperConfig{
			BaseURL:        v.GetString("SCRAPER_BASE_URL"),
			UserAgent:      v.GetString("SCRAPER_USER_AGENT"),
			SearchURLs:     splitList(v.GetString("SCRAPER_SEARCH_URLS")),
			FetchInterval:  v.GetDuration("SCRAPER_FETCH_INTERVAL"),
			MaxSearchPages: v.GetInt("SCRAPER_MAX_SEARCH_PAGES"),
			RecomputePool:  v.GetInt("SCORE_RECOMPUTE_POOL"),
		},
		Scoring: ScoringConfig{
			Weights: scoring.Weights{
				Price:    v.GetFloat64("SCORE_WEIGHT_PRICE"),
				Location: v.GetFloat64("SCORE_WEIGHT_LOCATION"),
				Spec:     v.GetFloat64("SCORE_WEIGHT_SPEC"),
				Cost:     v.GetFloat64("SCORE_WEIGHT_COST"),
				Future:   v.GetFloat64("SCORE_WEIGHT_FUTURE"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Scraper.FetchInterval < 0 {
		return fmt.Errorf("SCRAPER_FETCH_INTERVAL must be non-negative")
	}
	if c.Scraper.MaxSearchPages < 1 {
		return fmt.Errorf("SCRAPER_MAX_SEARCH_PAGES must be at least 1")
	}
	if c.Scraper.RecomputePool < 1 {
		return fmt.Errorf("SCORE_RECOMPUTE_POOL must be at least 1")
	}

	// Negative weights would corrupt the score denominator. Zero weights are
	// allowed: they mute a category, and the scorer handles an all-zero
	// profile by reporting a zero total.
	w := c.Scoring.Weights
	for name, value := range map[string]float64{
		"SCORE_WEIGHT_PRICE":    w.Price,
		"SCORE_WEIGHT_LOCATION": w.Location,
		"SCORE_WEIGHT_SPEC":     w.Spec,
		"SCORE_WEIGHT_COST":     w.Cost,
		"SCORE_WEIGHT_FUTURE":   w.Future,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}

	return nil
}

// splitList splits a comma-separated value into trimmed non-empty entries.
func splitList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
