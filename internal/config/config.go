package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultDatabaseURL   = "microblog.db"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultRefreshPepper = "change-me-refresh-pepper"
	defaultJWTAccessTTL  = "15m"
	defaultRefreshTTL    = "168h"
)

type Config struct {
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	JWTAccessTTL       time.Duration
	RefreshTTL         time.Duration
	RefreshTokenPepper string

	// EventsSync makes the bus dispatch inline instead of off a queue.
	EventsSync bool

	// S3Endpoint empty means the in-memory blob store (local development).
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", defaultHTTPAddr),
		DatabaseURL:        getEnv("DATABASE_URL", defaultDatabaseURL),
		JWTSecret:          strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		RefreshTokenPepper: strings.TrimSpace(getEnv("REFRESH_TOKEN_PEPPER", defaultRefreshPepper)),
		EventsSync:         boolEnv("EVENTS_SYNC"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", "microblog-images"),
		S3UseSSL:           boolEnv("S3_USE_SSL"),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
	}

	var err error
	cfg.JWTAccessTTL, err = durationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL, err = durationEnv("REFRESH_TTL", defaultRefreshTTL)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}

func durationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
