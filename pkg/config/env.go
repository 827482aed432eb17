package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names read by FromEnv.
const (
	EnvAPIBaseURL  = "PORTAL_API_URL"
	EnvRealtimeURL = "PORTAL_REALTIME_URL"
	EnvAPITimeout  = "PORTAL_API_TIMEOUT"
)

// FromEnv builds a Config from environment variables, loading .env files
// first if present. Missing .env files are not an error; a missing API base
// URL is (it must be injected by the host environment).
func FromEnv(files ...string) (Config, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load(files...)

	cfg := Defaults()
	cfg.API.BaseURL = os.Getenv(EnvAPIBaseURL)
	cfg.Realtime.URL = os.Getenv(EnvRealtimeURL)
	cfg.Realtime.Enabled = cfg.Realtime.URL != ""

	if raw := os.Getenv(EnvAPITimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.API.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
