package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	GinMode       string
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	JWTSecret     string
	UploadDir     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PreviewTTL    time.Duration
	PreviewSweep  time.Duration
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "taskuser"),
		DBPassword:    getEnv("DB_PASSWORD", "taskpassword"),
		DBName:        getEnv("DB_NAME", "task_management"),
		JWTSecret:     getEnv("JWT_SECRET", "default-secret-key-change-me"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PreviewTTL:    getEnvDuration("PREVIEW_TOKEN_TTL", time.Hour),
		PreviewSweep:  getEnvDuration("PREVIEW_SWEEP_INTERVAL", 10*time.Minute),
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
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
