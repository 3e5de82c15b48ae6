// Package config loads engine configuration from the environment. A
// .env file in the working directory is read first when present, so
// local runs do not need exported variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gophi/internal/errors"
)

// Config represents the complete engine configuration
type Config struct {
	Compute  ComputeConfig
	Cache    CacheConfig
	Database DatabaseConfig
}

// ComputeConfig holds the knobs of the phi computation itself
type ComputeConfig struct {
	// Measure selects the repertoire distance: EMD, EMD_APPROX, KLD, L1
	Measure string
	// Scheme selects the mechanism partition family: BI or TRI
	Scheme string
	// Tolerance is the numerical floor below which phi counts as zero
	Tolerance float64
	// Workers bounds the evaluation fan-out; 0 means one per CPU
	Workers int
	// Timeout bounds one full analysis; 0 means unbounded
	Timeout time.Duration
	// Approximate switches the system-level structure distance to the
	// small-phi-difference form
	Approximate bool
	// PruneCuts drops system cuts that sever no causal edge
	PruneCuts bool
}

// CacheConfig holds cache backend settings
type CacheConfig struct {
	// Backend is one of: memory, badger, none
	Backend string
	// Dir is the Badger directory; empty selects an in-memory instance
	Dir string
}

// DatabaseConfig holds result persistence settings. Persistence is
// optional; the engine runs fully in memory without it.
type DatabaseConfig struct {
	Enabled bool
	URL     string
}

// Load reads configuration from the environment and validates it
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Compute: ComputeConfig{
			Measure:     getEnvOrDefault("PHI_MEASURE", "EMD"),
			Scheme:      getEnvOrDefault("PHI_PARTITION_SCHEME", "BI"),
			Tolerance:   getEnvFloatOrDefault("PHI_TOLERANCE", 1e-10),
			Workers:     getEnvIntOrDefault("PHI_WORKERS", 0),
			Timeout:     getEnvDurationOrDefault("PHI_TIMEOUT", 0),
			Approximate: getEnvBoolOrDefault("PHI_APPROXIMATE", false),
			PruneCuts:   getEnvBoolOrDefault("PHI_PRUNE_CUTS", true),
		},
		Cache: CacheConfig{
			Backend: getEnvOrDefault("PHI_CACHE_BACKEND", "memory"),
			Dir:     getEnvOrDefault("PHI_CACHE_DIR", ""),
		},
		Database: DatabaseConfig{
			Enabled: getEnvBoolOrDefault("PHI_DB_ENABLED", false),
			URL:     getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Compute.Measure {
	case "EMD", "EMD_APPROX", "KLD", "L1":
	default:
		return errors.ConfigInvalid("PHI_MEASURE must be one of EMD, EMD_APPROX, KLD, L1")
	}
	switch config.Compute.Scheme {
	case "BI", "TRI":
	default:
		return errors.ConfigInvalid("PHI_PARTITION_SCHEME must be BI or TRI")
	}
	if config.Compute.Tolerance < 0 {
		return errors.ConfigInvalid("PHI_TOLERANCE must be non-negative")
	}
	switch config.Cache.Backend {
	case "memory", "badger", "none":
	default:
		return errors.ConfigInvalid("PHI_CACHE_BACKEND must be memory, badger or none")
	}
	if config.Database.Enabled && config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required when PHI_DB_ENABLED is set")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
