package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("PublicBaseURL = %q", cfg.Server.PublicBaseURL)
	}
	if cfg.AWS.PresignExpireSeconds != 3600 {
		t.Errorf("PresignExpireSeconds = %d, want 3600", cfg.AWS.PresignExpireSeconds)
	}
	if cfg.Transcoder.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Transcoder.TimeoutSeconds)
	}
	if len(cfg.Transcoder.Qualities) != 4 || cfg.Transcoder.Qualities[0] != "360p" {
		t.Errorf("Qualities = %v", cfg.Transcoder.Qualities)
	}
	if cfg.Transcoder.BaseURL != "" {
		t.Errorf("BaseURL should default empty, got %q", cfg.Transcoder.BaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://db:5432/videos?sslmode=disable")
	t.Setenv("TRANSCODER_BASE_URL", "http://transcoder:8000")
	t.Setenv("TRANSCODER_WEBHOOK_SECRET", "hush")
	t.Setenv("TRANSCODER_QUALITIES", "720p, 1080p")
	t.Setenv("AWS_PRESIGN_EXPIRE_SECONDS", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if got := cfg.Database.DSN(); got != "postgres://db:5432/videos?sslmode=disable" {
		t.Errorf("DSN = %q", got)
	}
	if cfg.Transcoder.BaseURL != "http://transcoder:8000" {
		t.Errorf("BaseURL = %q", cfg.Transcoder.BaseURL)
	}
	if cfg.Transcoder.WebhookSecret != "hush" {
		t.Errorf("WebhookSecret = %q", cfg.Transcoder.WebhookSecret)
	}
	want := []string{"720p", "1080p"}
	if len(cfg.Transcoder.Qualities) != len(want) || cfg.Transcoder.Qualities[1] != "1080p" {
		t.Errorf("Qualities = %v, want %v", cfg.Transcoder.Qualities, want)
	}
	if cfg.AWS.PresignExpireSeconds != 600 {
		t.Errorf("PresignExpireSeconds = %d", cfg.AWS.PresignExpireSeconds)
	}
}

func TestDSNFromComponents(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	if got := c.DSN(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Errorf("DSN = %q", got)
	}
}
