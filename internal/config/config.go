package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Legacy upstream store (generic proxy target)
	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamTimeout time.Duration

	// Google Classroom sync
	GoogleCredentialsJSON string
	ClassroomScope        string
	SyncTimeout           time.Duration

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	// .env is a development convenience; in production everything
	// arrives through real environment variables.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "breaking_math_club"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", ""),
		UpstreamAPIKey:  getEnv("UPSTREAM_API_KEY", ""),
		UpstreamTimeout: parseDuration(getEnv("UPSTREAM_TIMEOUT", "5s"), 5*time.Second),

		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS", ""),
		ClassroomScope:        getEnv("CLASSROOM_SCOPE", "https://www.googleapis.com/auth/classroom.announcements.readonly"),
		SyncTimeout:           parseDuration(getEnv("SYNC_TIMEOUT", "10s"), 10*time.Second),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
