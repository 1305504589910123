package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

type Config struct {
	Addr               string
	Environment        string
	FrontendDir        string
	BackendURL         string
	BackendTimeout     time.Duration
	SessionBackend     string
	SessionSecret      string
	SessionCookie      string
	SessionTTL         time.Duration
	SessionKey         string
	DatabaseURL        string
	RunMigrations      bool
	RedisURL           string
	AdminUsername      string
	AdminPasswordHash  string
	AllowedOrigins     []string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	LeaveHistoryTTL    time.Duration
	HolidayFeedURL     string
	HolidayRefresh     time.Duration
	DashboardParallel  int
	MetricsEnabled     bool
	OTLPEndpoint       string
	OTLPInsecure       bool
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env failed", "err", err)
	}

	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		FrontendDir:        getEnv("FRONTEND_DIR", "frontend/dist"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:8081"),
		BackendTimeout:     getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionCookie:      getEnv("SESSION_COOKIE", "payflow_session"),
		SessionTTL:         getEnvDuration("SESSION_COOKIE_TTL", 30*24*time.Hour),
		SessionKey:         getEnv("SESSION_ENCRYPTION_KEY", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RedisURL:           getEnv("REDIS_URL", ""),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LeaveHistoryTTL:    getEnvDuration("LEAVE_HISTORY_TTL", 30*time.Second),
		HolidayFeedURL:     getEnv("HOLIDAY_FEED_URL", ""),
		HolidayRefresh:     getEnvDuration("HOLIDAY_REFRESH_INTERVAL", 6*time.Hour),
		DashboardParallel:  getEnvInt("DASHBOARD_PARALLELISM", 4),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND is postgres")
		}
	case SessionBackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND is redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, postgres, redis")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.SessionSecret) == "" {
			return fmt.Errorf("SESSION_SECRET must be set to a strong value in production")
		}
		if c.SessionBackend == SessionBackendMemory {
			return fmt.Errorf("SESSION_BACKEND memory does not survive restarts; use postgres or redis in production")
		}
	}
	if (c.AdminUsername == "") != (c.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD_HASH must be set together")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.DashboardParallel <= 0 {
		return fmt.Errorf("DASHBOARD_PARALLELISM must be positive")
	}
	return nil
}
