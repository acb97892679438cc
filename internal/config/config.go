// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server
	Port        string
	Host        string
	Environment string
	LogLevel    string

	// MongoDB
	MongoURI     string
	DatabaseName string
	MongoTimeout int

	// JWT
	JWTSecret     string
	JWTExpiration int // hours

	// CORS
	AllowedOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitDuration time.Duration

	// Uploads
	UploadMaxSize  int64
	UploadMaxFiles int

	// Object storage
	StorageURL       string
	StorageAPIKey    string
	StoragePublicURL string

	// Redis (optional, enables cross-instance notification push)
	RedisURL string

	// Notifications
	NotificationRetentionDays int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	return &Config{
		Port:                      getEnv("PORT", "5000"),
		Host:                      getEnv("HOST", "0.0.0.0"),
		Environment:               getEnv("ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		MongoURI:                  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:              getEnv("DATABASE_NAME", "sayit"),
		MongoTimeout:              getEnvAsInt("MONGO_TIMEOUT", 10),
		JWTSecret:                 getEnv("JWT_SECRET", "change-me"),
		JWTExpiration:             getEnvAsInt("JWT_EXPIRATION", 24),
		AllowedOrigins:            getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitEnabled:          getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests:         getEnvAsPositiveInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration:         getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		UploadMaxSize:             int64(getEnvAsInt("UPLOAD_MAX_SIZE", 10<<20)),
		UploadMaxFiles:            getEnvAsInt("UPLOAD_MAX_FILES", 5),
		StorageURL:                getEnv("STORAGE_URL", ""),
		StorageAPIKey:             getEnv("STORAGE_API_KEY", ""),
		StoragePublicURL:          getEnv("STORAGE_PUBLIC_URL", ""),
		RedisURL:                  getEnv("REDIS_URL", ""),
		NotificationRetentionDays: getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 30),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsPositiveInt falls back to defaultValue for values below 1.
func getEnvAsPositiveInt(key string, defaultValue int) int {
	if v := getEnvAsInt(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated value, dropping empty entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
