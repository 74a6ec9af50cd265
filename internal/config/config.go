package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config is the persistent application configuration
type Config struct {
	// Guide grid shape
	Guide GuideConfig `json:"guide"`

	// Refresh orchestration
	Refresh RefreshConfig `json:"refresh"`

	// Log settings
	Log LogConfig `json:"log"`

	// DBPath is the SQLite catalog. ":memory:" is accepted for demos.
	DBPath string `json:"db_path"`

	// EventLog is the JSONL refresh event log. Empty disables it.
	EventLog string `json:"event_log"`
}

// GuideConfig describes the visible grid.
type GuideConfig struct {
	TotalHours      int `json:"total_hours"`       // depth of the visible time window
	TimeSlotMinutes int `json:"time_slot_minutes"` // display granularity only
	BufferChannels  int `json:"buffer_channels"`   // rows refreshed beyond each visible edge
	VisibleRows     int `json:"visible_rows"`      // fallback before the terminal reports its size
}

// RefreshConfig tunes the refresh coordinator.
type RefreshConfig struct {
	Workers           int     `json:"workers"`
	DebounceMs        int     `json:"debounce_ms"`
	ContentTimeoutSec int     `json:"content_timeout_sec"`
	CatalogRatePerSec float64 `json:"catalog_rate_per_sec"` // <= 0 means unlimited
	CatalogBurst      int     `json:"catalog_burst"`
	TickSeconds       int     `json:"tick_seconds"` // periodic refresh to keep "on air" current
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level string `json:"level"` // debug, info, warn, error
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Guide: GuideConfig{
			TotalHours:      3,
			TimeSlotMinutes: 30,
			BufferChannels:  2,
			VisibleRows:     10,
		},
		Refresh: RefreshConfig{
			Workers:           4,
			DebounceMs:        150,
			ContentTimeoutSec: 15,
			CatalogRatePerSec: 20,
			CatalogBurst:      4,
			TickSeconds:       60,
		},
		Log: LogConfig{
			Level: "info",
		},
		DBPath:   filepath.Join(DataDir(), "channelguide.db"),
		EventLog: filepath.Join(DataDir(), "events.jsonl"),
	}
}

// DataDir returns ~/.channelguide.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".channelguide")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults; a corrupt
// one also yields defaults so the guide still starts.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
	}
	cfg.AutoPopulateFromEnv()
	cfg.Validate()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path, creating the directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("CHANNELGUIDE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CHANNELGUIDE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CHANNELGUIDE_EVENT_LOG"); v != "" {
		c.EventLog = v
	}
}

// Validate replaces non-positive values with defaults.
func (c *Config) Validate() {
	d := DefaultConfig()
	if c.Guide.TotalHours <= 0 {
		c.Guide.TotalHours = d.Guide.TotalHours
	}
	if c.Guide.TimeSlotMinutes <= 0 {
		c.Guide.TimeSlotMinutes = d.Guide.TimeSlotMinutes
	}
	if c.Guide.BufferChannels < 0 {
		c.Guide.BufferChannels = d.Guide.BufferChannels
	}
	if c.Guide.VisibleRows <= 0 {
		c.Guide.VisibleRows = d.Guide.VisibleRows
	}
	if c.Refresh.Workers <= 0 {
		c.Refresh.Workers = d.Refresh.Workers
	}
	if c.Refresh.DebounceMs < 0 {
		c.Refresh.DebounceMs = d.Refresh.DebounceMs
	}
	if c.Refresh.ContentTimeoutSec <= 0 {
		c.Refresh.ContentTimeoutSec = d.Refresh.ContentTimeoutSec
	}
	if c.Refresh.CatalogBurst <= 0 {
		c.Refresh.CatalogBurst = d.Refresh.CatalogBurst
	}
	if c.Refresh.TickSeconds <= 0 {
		c.Refresh.TickSeconds = d.Refresh.TickSeconds
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
}

// Debounce returns the refresh debounce window.
func (r RefreshConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMs) * time.Millisecond
}

// ContentTimeout returns the per-channel content resolution timeout.
func (r RefreshConfig) ContentTimeout() time.Duration {
	return time.Duration(r.ContentTimeoutSec) * time.Second
}

// Tick returns the periodic refresh interval.
func (r RefreshConfig) Tick() time.Duration {
	return time.Duration(r.TickSeconds) * time.Second
}

// Span returns the visible time window depth.
func (g GuideConfig) Span() time.Duration {
	return time.Duration(g.TotalHours) * time.Hour
}

// Slot returns the display column width.
func (g GuideConfig) Slot() time.Duration {
	return time.Duration(g.TimeSlotMinutes) * time.Minute
}
