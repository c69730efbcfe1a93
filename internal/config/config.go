package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds settings for the scan verdict cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ScanConfig holds settings for the external malware-scanning service and
// the orchestrator's quota discipline.
type ScanConfig struct {
	BaseURL string
	APIKey  string

	// MinInterval is the minimum delay between any two dispatched requests.
	MinInterval time.Duration
	// DailyLimit caps requests per local day; further scans fail open.
	DailyLimit int

	PollMaxAttempts     int
	PollInitialInterval time.Duration
	PollMaxInterval     time.Duration

	HTTPTimeout time.Duration
	MaxRetries  int

	// VerdictTTL bounds how long a cached verdict is reused.
	VerdictTTL time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Scan     ScanConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Scan: ScanConfig{
			BaseURL:             getEnv("SCAN_BASE_URL", ""),
			APIKey:              getEnv("SCAN_API_KEY", ""),
			MinInterval:         getEnvDuration("SCAN_MIN_INTERVAL", 15*time.Second),
			DailyLimit:          getEnvInt("SCAN_DAILY_LIMIT", 500),
			PollMaxAttempts:     getEnvInt("SCAN_POLL_MAX_ATTEMPTS", 10),
			PollInitialInterval: getEnvDuration("SCAN_POLL_INITIAL_INTERVAL", 15*time.Second),
			PollMaxInterval:     getEnvDuration("SCAN_POLL_MAX_INTERVAL", 2*time.Minute),
			HTTPTimeout:         getEnvDuration("SCAN_HTTP_TIMEOUT", 30*time.Second),
			MaxRetries:          getEnvInt("SCAN_HTTP_MAX_RETRIES", 3),
			VerdictTTL:          getEnvDuration("SCAN_VERDICT_TTL", 30*24*time.Hour),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
