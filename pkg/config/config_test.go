package config

import (
	"testing"
	"time"
)

func TestLoadFromMap(t *testing.T) {
	input := map[string]any{
		"api": map[string]any{
			"base_url": "https://portal.example.com/api",
		},
		"feed": map[string]any{
			"capacity":           5,
			"seed_announcements": 3,
		},
		"realtime": map[string]any{
			"url":     "wss://portal.example.com/ws",
			"enabled": true,
		},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://portal.example.com/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.Feed.Capacity != 5 {
		t.Fatalf("expected capacity 5, got %d", cfg.Feed.Capacity)
	}
	if cfg.Feed.SeedMessages != 10 {
		t.Fatalf("expected default seed messages, got %d", cfg.Feed.SeedMessages)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		API:      APIConfig{BaseURL: "https://portal.example.com/api", Timeout: time.Second},
		Realtime: RealtimeConfig{URL: "wss://portal.example.com/ws", Enabled: true},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.API.Timeout != time.Second {
		t.Fatalf("expected 1s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Feed.Capacity != 20 {
		t.Fatalf("expected default capacity, got %d", cfg.Feed.Capacity)
	}
}

func TestValidateRejectsMissingBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.Realtime.Enabled = false
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing api.base_url")
	}
}

func TestValidateRejectsRealtimeWithoutURL(t *testing.T) {
	cfg := Defaults()
	cfg.API.BaseURL = "https://portal.example.com/api"
	cfg.Realtime.Enabled = true
	cfg.Realtime.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for realtime without url")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "https://portal.example.com/api")
	t.Setenv(EnvRealtimeURL, "wss://portal.example.com/ws")
	t.Setenv(EnvAPITimeout, "3s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.API.Timeout)
	}
	if !cfg.Realtime.Enabled {
		t.Fatal("expected realtime enabled when url present")
	}
}
