package config

import (
	"os"
	"strconv"

	"causalsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Simulation SimulationConfig
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory repository; sslmode and friends travel inside the URL.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// SimulationConfig holds default simulation parameters
type SimulationConfig struct {
	DefaultTrials int
	MaxTrials     int
	Workers       int // <= 1 runs trials sequentially
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Simulation: SimulationConfig{
			DefaultTrials: getEnvIntOrDefault("SIM_DEFAULT_TRIALS", 1000),
			MaxTrials:     getEnvIntOrDefault("SIM_MAX_TRIALS", 100000),
			Workers:       getEnvIntOrDefault("SIM_WORKERS", 1),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Simulation.DefaultTrials <= 0 {
		return errors.ConfigInvalid("SIM_DEFAULT_TRIALS must be > 0")
	}
	if config.Simulation.MaxTrials < config.Simulation.DefaultTrials {
		return errors.ConfigInvalid("SIM_MAX_TRIALS must be >= SIM_DEFAULT_TRIALS")
	}
	if config.Simulation.Workers < 0 {
		return errors.ConfigInvalid("SIM_WORKERS cannot be negative")
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
