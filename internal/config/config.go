package config

import (
	"os"
	"strconv"

	"github.com/hqvuong/work-order-api/internal/constants"
)

type Config struct {
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SessionSecret string
	GinMode       string
	LogDev        bool

	DefaultPageSize  int
	MaxPageSize      int
	RefreshBatchSize int
}

func Load() *Config {
	return &Config{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "workorder"),
		DBPassword:    getEnv("DB_PASSWORD", "workorder"),
		DBName:        getEnv("DB_NAME", "work_orders"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogDev:        getEnv("LOG_DEV", "true") == "true",

		DefaultPageSize:  getEnvInt("SEARCH_DEFAULT_PAGE_SIZE", constants.DefaultPageSize),
		MaxPageSize:      getEnvInt("SEARCH_MAX_PAGE_SIZE", constants.MaxPageSize),
		RefreshBatchSize: getEnvInt("SEARCH_REFRESH_BATCH_SIZE", constants.DefaultRefreshBatchSize),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
