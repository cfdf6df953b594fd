package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	CopyeditAPIKey string

	// Catalog source: URL wins over file; neither means the builtin list.
	CatalogURL    string
	CatalogAPIKey string
	CatalogFile   string

	// Optional redis cache in front of the catalog source
	RedisURL        string
	CatalogCacheTTL time.Duration

	// Editor
	ValidationDebounce time.Duration
	HistoryLimit       int

	// Sessions
	SessionTTL  time.Duration
	MaxSessions int

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		CopyeditAPIKey: os.Getenv("COPYEDIT_API_KEY"),

		CatalogURL:    os.Getenv("CATALOG_URL"),
		CatalogAPIKey: os.Getenv("CATALOG_API_KEY"),
		CatalogFile:   os.Getenv("CATALOG_FILE"),

		RedisURL:        os.Getenv("REDIS_URL"),
		CatalogCacheTTL: envDuration("CATALOG_CACHE_TTL", 10*time.Minute),

		ValidationDebounce: envDuration("VALIDATION_DEBOUNCE", 300*time.Millisecond),
		HistoryLimit:       envInt("HISTORY_LIMIT", 50),

		SessionTTL:  envDuration("SESSION_TTL", 30*time.Minute),
		MaxSessions: envInt("MAX_SESSIONS", 1000),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.CatalogCacheTTL <= 0 {
		cfg.CatalogCacheTTL = 10 * time.Minute
	}
	if cfg.ValidationDebounce <= 0 {
		cfg.ValidationDebounce = 300 * time.Millisecond
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.CopyeditAPIKey == "" {
		return errors.New("COPYEDIT_API_KEY is required")
	}
	if c.CatalogURL != "" && !strings.HasPrefix(c.CatalogURL, "http://") && !strings.HasPrefix(c.CatalogURL, "https://") {
		return fmt.Errorf("CATALOG_URL must be an http(s) URL, got %q", c.CatalogURL)
	}
	if c.RedisURL != "" && c.CatalogURL == "" && c.CatalogFile == "" {
		return errors.New("REDIS_URL is set but there is no CATALOG_URL or CATALOG_FILE to cache")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
