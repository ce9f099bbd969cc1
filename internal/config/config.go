package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the API server
type Config struct {
	Port             string
	DatabasePath     string
	JWTSecret        string
	OverdueThreshold time.Duration
	SweepInterval    time.Duration
	StartingCarbon   float64
	StartingCash     float64
}

// Load reads configuration from the environment, with a .env file as an
// optional source for local development. Missing values fall back to defaults.
func Load() *Config {
	// A missing .env file is fine; real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabasePath:     getEnv("DATABASE_PATH", "carbon.db"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		OverdueThreshold: getDuration("OVERDUE_THRESHOLD", 7*24*time.Hour),
		SweepInterval:    getDuration("OVERDUE_SWEEP_INTERVAL", 5*time.Minute),
		StartingCarbon:   getFloat("STARTING_CARBON_BALANCE", 1000),
		StartingCash:     getFloat("STARTING_CASH_BALANCE", 500000),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
