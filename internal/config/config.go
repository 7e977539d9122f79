// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	AppEnv      string

	// Object storage (S3-compatible: MinIO locally, any S3 provider in production)
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StorageUseSSL     bool
	StoragePublicBase string // browser-accessible base URL, e.g. "http://localhost:9000/melofy"

	// Upload policy
	MaxFileSizeBytes int64         // hard ceiling on a declared or streamed upload size
	GrantLifetime    time.Duration // validity window of a presigned upload URL
	PresignedUploads bool          // false routes upload bytes through the API instead of storage-direct
}

// defaultJWTSecret is only acceptable outside production; Load refuses to
// start a production deployment signing tokens with a published value.
const defaultJWTSecret = "change_me_in_production"

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),

		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:     getEnv("STORAGE_BUCKET", "melofy"),
		StorageUseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
		StoragePublicBase: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:9000/melofy"),

		MaxFileSizeBytes: getEnvInt64("MAX_FILE_SIZE_BYTES", 100<<20),
		GrantLifetime:    time.Duration(getEnvInt64("GRANT_LIFETIME_SECONDS", 900)) * time.Second,
		PresignedUploads: getEnv("PRESIGNED_UPLOADS", "true") == "true",
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		log.Fatal("JWT_SECRET must be set in production")
	}
	return cfg
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
