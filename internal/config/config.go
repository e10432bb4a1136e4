package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration, read once at startup and
// passed by reference. OAuth credentials are never read ad hoc from the
// environment elsewhere.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Sessions
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	// Naver OAuth (optional; the login route degrades to a coded
	// error redirect when unset)
	NaverClientID     string
	NaverClientSecret string
	NaverRedirectURI  string

	// AppBaseURL prefixes the login/dashboard redirect targets.
	AppBaseURL string

	// CookieSecure should be true wherever the app is served over
	// HTTPS.
	CookieSecure bool

	// Rate limiting for credential-bearing endpoints.
	RateLimitEnabled      bool
	AuthRequestsPerWindow int
	AuthWindowMinutes     int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "classfeed"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "classfeed"),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		NaverClientID:     getEnv("NAVER_CLIENT_ID", ""),
		NaverClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
		NaverRedirectURI:  getEnv("NAVER_REDIRECT_URI", ""),

		AppBaseURL:   getEnv("APP_BASE_URL", ""),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		RateLimitEnabled:      getEnvBool("RATE_LIMIT_ENABLED", true),
		AuthRequestsPerWindow: getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
		AuthWindowMinutes:     getEnvInt("RATE_LIMIT_AUTH_WINDOW_MINUTES", 1),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

// HasNaverOAuth returns true if Naver OAuth is fully configured.
func (c *Config) HasNaverOAuth() bool {
	return c.NaverClientID != "" && c.NaverClientSecret != "" && c.NaverRedirectURI != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
