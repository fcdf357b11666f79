package app

import (
	"os"
	"strconv"
	"time"

	"github.com/meongtory/auth/internal/auth/oauth"
)

type Config struct {
	JWTSecret   string // Required: base64-encoded HMAC signing key
	FrontendURL string // Frontend origin for post-login redirects (default: https://meongtory.shop)

	Google oauth.Credentials // Optional: Google OAuth client registration
	Kakao  oauth.Credentials // Optional: Kakao OAuth client registration
	Naver  oauth.Credentials // Optional: Naver OAuth client registration

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "https://meongtory.shop"),

		Google: oauth.Credentials{
			ClientID:     os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_GOOGLE_REDIRECT_URL"),
		},
		Kakao: oauth.Credentials{
			ClientID:     os.Getenv("OAUTH_KAKAO_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_KAKAO_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_KAKAO_REDIRECT_URL"),
		},
		Naver: oauth.Credentials{
			ClientID:     os.Getenv("OAUTH_NAVER_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_NAVER_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OAUTH_NAVER_REDIRECT_URL"),
		},

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	return defaultValue
}
