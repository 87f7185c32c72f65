package config

import (
	"os"
	"strconv"

	"gppulse/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings. URL may be empty when
// running purely from a file; the repository layer is then skipped.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds data source settings
type DataConfig struct {
	File string
}

// AnalysisConfig holds analysis tuning knobs
type AnalysisConfig struct {
	MaxParallel      int
	ForecastHorizon  int
	OutlierThreshold float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Data: DataConfig{
			File: getEnvOrDefault("DATA_FILE", ""),
		},
		Analysis: AnalysisConfig{
			MaxParallel:      getEnvIntOrDefault("ANALYSIS_MAX_PARALLEL", 8),
			ForecastHorizon:  getEnvIntOrDefault("FORECAST_HORIZON", 3),
			OutlierThreshold: getEnvFloatOrDefault("OUTLIER_THRESHOLD", 1.5),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.MaxParallel < 1 {
		return errors.ConfigInvalid("ANALYSIS_MAX_PARALLEL must be at least 1")
	}
	if config.Analysis.ForecastHorizon < 1 {
		return errors.ConfigInvalid("FORECAST_HORIZON must be at least 1")
	}
	if config.Analysis.OutlierThreshold <= 0 {
		return errors.ConfigInvalid("OUTLIER_THRESHOLD must be positive")
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
