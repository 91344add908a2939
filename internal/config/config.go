package config

import (
	"fmt"
	"os"
	"strconv"
)

// Store backends for condition instance persistence
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all configuration for the engine
type Config struct {
	CatalogPath string
	Store       string
	Redis       RedisConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		CatalogPath: getEnvOrDefault("CATALOG_PATH", "configs/catalog.yaml"),
		Store:       getEnvOrDefault("STORE_BACKEND", StoreMemory),
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
	}

	if cfg.Store != StoreMemory && cfg.Store != StoreRedis {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.Store)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
