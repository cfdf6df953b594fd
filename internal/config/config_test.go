package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SESSION_TTL", "HISTORY_LIMIT", "VALIDATION_DEBOUNCE", "MAX_UPLOAD_BYTES"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("expected port 8091, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("expected history limit 50, got %d", cfg.HistoryLimit)
	}
	if cfg.ValidationDebounce != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %s", cfg.ValidationDebounce)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("VALIDATION_DEBOUNCE", "1s")
	t.Setenv("MAX_SESSIONS", "7")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	cfg := Load()
	if cfg.Port != "9000" || cfg.ValidationDebounce != time.Second || cfg.MaxSessions != 7 || cfg.PDFFallbackPdftotext {
		t.Errorf("expected overrides applied, got %+v", cfg)
	}
}

func TestLoad_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "-3")
	t.Setenv("SESSION_TTL", "0s")
	t.Setenv("MAX_SESSIONS", "nope")
	cfg := Load()
	if cfg.HistoryLimit != 50 || cfg.SessionTTL != 30*time.Minute || cfg.MaxSessions != 1000 {
		t.Errorf("expected defaults re-applied, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing api key", Config{}, true},
		{"ok", Config{CopyeditAPIKey: "k"}, false},
		{"bad catalog url", Config{CopyeditAPIKey: "k", CatalogURL: "ftp://x"}, true},
		{"redis without source", Config{CopyeditAPIKey: "k", RedisURL: "redis://localhost:6379"}, true},
		{"redis with file", Config{CopyeditAPIKey: "k", RedisURL: "redis://localhost:6379", CatalogFile: "terms.yaml"}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.name, tt.wantErr, err)
		}
	}
}
