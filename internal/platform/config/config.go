// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, pricing) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Toniewert API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Market sample evidence thresholds
	MarketCacheTTLMinutes     int     `env:"MARKET_CACHE_TTL_MINUTES"     envDefault:"360"`
	MarketHistoryDays         int     `env:"MARKET_HISTORY_DAYS"          envDefault:"180"`
	MarketMinSamples          int     `env:"MARKET_MIN_SAMPLES"           envDefault:"5"`
	MarketMinEffectiveSamples float64 `env:"MARKET_MIN_EFFECTIVE_SAMPLES" envDefault:"5.0"`
	MarketPriceMinEUR         float64 `env:"MARKET_PRICE_MIN_EUR"         envDefault:"3.0"`
	MarketPriceMaxEUR         float64 `env:"MARKET_PRICE_MAX_EUR"         envDefault:"250.0"`
	MarketRawPriceMaxEUR      float64 `env:"MARKET_RAW_PRICE_MAX_EUR"     envDefault:"500.0"`
	MarketOutlierIQRFactor    float64 `env:"MARKET_OUTLIER_IQR_FACTOR"    envDefault:"1.8"`
	MarketDefaultSourceWeight float64 `env:"MARKET_SOURCE_WEIGHT_DEFAULT" envDefault:"1.0"`

	// SourceWeights maps a listing source to its evidence weight.
	// Sold-listing sources carry full weight; classifieds offers carry less
	// because asking prices include negotiation headroom. Unknown sources
	// fall back to MarketDefaultSourceWeight.
	SourceWeights map[string]float64 `env:"MARKET_SOURCE_WEIGHTS" envDefault:"ebay_sold:1.0,kleinanzeigen_offer:0.35,kleinanzeigen_sold_estimate:0.45" envKeyValSeparator:":"`

	// Background catalog-wide refresh
	AutoRefreshEnabled         bool `env:"MARKET_AUTO_REFRESH_ENABLED"          envDefault:"false"`
	AutoRefreshIntervalMinutes int  `env:"MARKET_AUTO_REFRESH_INTERVAL_MINUTES" envDefault:"10080"`
	AutoRefreshLimit           int  `env:"MARKET_AUTO_REFRESH_LIMIT"            envDefault:"0"`
	AutoRefreshMaxItems        int  `env:"MARKET_AUTO_REFRESH_MAX_ITEMS"        envDefault:"80"`

	// Upstream fetch behavior
	FetchTimeoutSeconds int     `env:"MARKET_FETCH_TIMEOUT_SECONDS" envDefault:"15"`
	FetchRetries        int     `env:"MARKET_FETCH_RETRIES"         envDefault:"2"`
	FetchRatePerSecond  float64 `env:"MARKET_FETCH_RATE_PER_SECOND" envDefault:"2.0"`

	// Photo recognition thresholds
	RecognitionMinScore      float64 `env:"RECOGNITION_MIN_SCORE"      envDefault:"0.72"`
	RecognitionResolvedScore float64 `env:"RECOGNITION_RESOLVED_SCORE" envDefault:"0.90"`
	RecognitionResolvedGap   float64 `env:"RECOGNITION_RESOLVED_GAP"   envDefault:"0.06"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that would silently corrupt pricing math.
func (c *Config) validate() error {
	if c.MarketPriceMinEUR <= 0 || c.MarketPriceMaxEUR <= c.MarketPriceMinEUR {
		return fmt.Errorf("config: invalid market price band [%v, %v]", c.MarketPriceMinEUR, c.MarketPriceMaxEUR)
	}
	if c.MarketOutlierIQRFactor <= 0 {
		return fmt.Errorf("config: MARKET_OUTLIER_IQR_FACTOR must be positive")
	}
	if c.MarketDefaultSourceWeight < 0 {
		return fmt.Errorf("config: MARKET_SOURCE_WEIGHT_DEFAULT must not be negative")
	}
	for source, weight := range c.SourceWeights {
		if weight < 0 || weight > 1.0 {
			return fmt.Errorf("config: source weight for %q out of range [0, 1]: %v", source, weight)
		}
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
