package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the persistent application configuration
type Config struct {
	// DataDir holds the durable store, the preferences file and logs.
	DataDir string `yaml:"data_dir"`

	// User is the identity the login prompt signs in as; empty means guest.
	User string `yaml:"user,omitempty"`

	UI      UIConfig      `yaml:"ui"`
	Storage StorageConfig `yaml:"storage"`

	// ProtectedViews overrides the views that need a signed-in identity.
	ProtectedViews []string `yaml:"protected_views,omitempty"`
}

// UIConfig holds list and scroll behaviour
type UIConfig struct {
	PageSize         int           `yaml:"page_size"`
	LoadMoreDelay    time.Duration `yaml:"load_more_delay"`
	QueryDebounce    time.Duration `yaml:"query_debounce"`
	ScrollHideOffset int           `yaml:"scroll_hide_offset"` // lines

	// HomeLocation is the neighbourhood distances are measured from.
	HomeLocation string `yaml:"home_location"`
}

// StorageConfig holds persistence tuning
type StorageConfig struct {
	BridgeDebounce  time.Duration `yaml:"bridge_debounce"`
	PrefsQuotaBytes int64         `yaml:"prefs_quota_bytes"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		UI: UIConfig{
			PageSize:         8,
			LoadMoreDelay:    400 * time.Millisecond,
			QueryDebounce:    300 * time.Millisecond,
			ScrollHideOffset: 80,
			HomeLocation:     "Old Town",
		},
		Storage: StorageConfig{
			BridgeDebounce:  time.Second,
			PrefsQuotaBytes: 5 << 20,
		},
	}
}

// DefaultDataDir is ~/.hyperlocal
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hyperlocal")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads config from path (ConfigPath when empty), or returns defaults.
// Fields missing from the file keep their defaults; environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	cfg.normalize()
	return cfg, nil
}

// ApplyEnv applies HYPERLOCAL_DATA_DIR and HYPERLOCAL_USER.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv("HYPERLOCAL_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if user := os.Getenv("HYPERLOCAL_USER"); user != "" {
		c.User = user
	}
}

// normalize replaces nonsensical values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = def.UI.PageSize
	}
	if c.UI.LoadMoreDelay < 0 {
		c.UI.LoadMoreDelay = def.UI.LoadMoreDelay
	}
	if c.UI.QueryDebounce < 0 {
		c.UI.QueryDebounce = def.UI.QueryDebounce
	}
	if c.UI.ScrollHideOffset < 0 {
		c.UI.ScrollHideOffset = def.UI.ScrollHideOffset
	}
	if c.Storage.BridgeDebounce <= 0 {
		c.Storage.BridgeDebounce = def.Storage.BridgeDebounce
	}
	if c.Storage.PrefsQuotaBytes <= 0 {
		c.Storage.PrefsQuotaBytes = def.Storage.PrefsQuotaBytes
	}
}

// Save writes config to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Paths under DataDir

func (c *Config) StorePath() string { return filepath.Join(c.DataDir, "hyperlocal.db") }
func (c *Config) PrefsPath() string { return filepath.Join(c.DataDir, "prefs.json") }
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, "logs", "events.jsonl")
}
