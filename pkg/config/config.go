package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. The REST and realtime
// base URLs are injected by the host environment, never computed here.
type Config struct {
	API      APIConfig      `mapstructure:"api" json:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime" json:"realtime"`
	Feed     FeedConfig     `mapstructure:"feed" json:"feed"`
	Toasts   ToastConfig    `mapstructure:"toasts" json:"toasts"`
}

// APIConfig locates the portal REST API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// RealtimeConfig locates the realtime channel endpoint.
type RealtimeConfig struct {
	URL     string `mapstructure:"url" json:"url"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

// FeedConfig bounds the notification feed and its historical seed.
type FeedConfig struct {
	Capacity          int `mapstructure:"capacity" json:"capacity"`
	SeedAnnouncements int `mapstructure:"seed_announcements" json:"seed_announcements"`
	SeedMessages      int `mapstructure:"seed_messages" json:"seed_messages"`
}

// ToastConfig toggles the realtime client's toast side channel.
type ToastConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Realtime: RealtimeConfig{
			Enabled: true,
		},
		Feed: FeedConfig{
			Capacity:          20,
			SeedAnnouncements: 10,
			SeedMessages:      10,
		},
		Toasts: ToastConfig{
			Enabled: true,
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Feed.Capacity <= 0 {
		return fmt.Errorf("feed.capacity must be > 0")
	}
	if c.Feed.SeedAnnouncements < 0 || c.Feed.SeedMessages < 0 {
		return fmt.Errorf("feed seed limits must be >= 0")
	}
	if c.Realtime.Enabled && strings.TrimSpace(c.Realtime.URL) == "" {
		return errors.New("realtime.url is required when realtime is enabled")
	}
	return nil
}

// Load decodes arbitrary input (struct, map) using cfgx helpers. While
// cfgx.Build still returns zero values, a lightweight decoder keeps the
// smoke path working.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Feed.Capacity == 0 {
		c.Feed.Capacity = defaults.Feed.Capacity
	}
	if c.Feed.SeedAnnouncements == 0 {
		c.Feed.SeedAnnouncements = defaults.Feed.SeedAnnouncements
	}
	if c.Feed.SeedMessages == 0 {
		c.Feed.SeedMessages = defaults.Feed.SeedMessages
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
