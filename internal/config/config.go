package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs from the environment.
type Config struct {
	AppPort          int
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	RedisHost        string
	RedisPort        int
	RedisPassword    string
	CacheTTL         time.Duration
	AutoMigrate      bool
	SeedMatrix       bool
	AuditLogging     bool
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; containers inject the environment directly.
	_ = godotenv.Load()

	return &Config{
		AppPort:          getEnvInt("APP_PORT", 8080),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "povguard"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "povguard"),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnvInt("REDIS_PORT", 6379),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_MINUTES", 30)) * time.Minute,
		AutoMigrate:      getEnvBool("AUTO_MIGRATE", true),
		SeedMatrix:       getEnvBool("SEED_DEFAULT_MATRIX", true),
		AuditLogging:     getEnvBool("ENABLE_AUDIT_LOGGING", true),
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
