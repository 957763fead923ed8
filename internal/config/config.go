// ABOUTME: Configuration management for mirrorview with YAML config loading.
// ABOUTME: Handles catalog, cache backend, mirror, view, and logging settings with ~ expansion.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogURL is the remote JSON catalog of release posts.
const DefaultCatalogURL = "https://raw.githubusercontent.com/dvuzu/monkrus-search/refs/heads/main/scraped_data.json"

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config stores mirrorview configuration loaded from ~/.config/mirrorview/config.yaml.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Mirrors MirrorsConfig `yaml:"mirrors"`
	View    ViewConfig    `yaml:"view"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CatalogConfig holds the remote catalog source settings.
type CatalogConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
	TTL     string `yaml:"ttl"`
}

// CacheConfig selects the durable cache tier.
type CacheConfig struct {
	Backend       string `yaml:"backend"` // file, sqlite, redis, or none
	Path          string `yaml:"path,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
}

// MirrorsConfig holds probe and ranking settings.
type MirrorsConfig struct {
	Preferred    []string `yaml:"preferred"`
	ProbeTimeout string   `yaml:"probe_timeout"`
}

// ViewConfig holds list pagination and input timing settings.
type ViewConfig struct {
	PageSize         int    `yaml:"page_size"`
	SearchDebounce   string `yaml:"search_debounce"`
	LoadMoreCooldown string `yaml:"load_more_cooldown"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns a config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			URL:     DefaultCatalogURL,
			Timeout: "10s",
			TTL:     "5m",
		},
		Cache: CacheConfig{Backend: BackendFile},
		Mirrors: MirrorsConfig{
			Preferred:    []string{"pb.wtf", "uztracker.net"},
			ProbeTimeout: "5s",
		},
		View: ViewConfig{
			PageSize:         50,
			SearchDebounce:   "300ms",
			LoadMoreCooldown: "200ms",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// CatalogTimeout returns the hard timeout for a catalog fetch.
func (c *Config) CatalogTimeout() time.Duration {
	return parseDuration(c.Catalog.Timeout, 10*time.Second)
}

// CatalogTTL returns how long a fetched catalog stays valid.
func (c *Config) CatalogTTL() time.Duration {
	return parseDuration(c.Catalog.TTL, 5*time.Minute)
}

// ProbeTimeout returns the per-mirror probe deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return parseDuration(c.Mirrors.ProbeTimeout, 5*time.Second)
}

// SearchDebounce returns the search input quiet period.
func (c *Config) SearchDebounce() time.Duration {
	return parseDuration(c.View.SearchDebounce, 300*time.Millisecond)
}

// LoadMoreCooldown returns the minimum spacing between page growth requests.
func (c *Config) LoadMoreCooldown() time.Duration {
	return parseDuration(c.View.LoadMoreCooldown, 200*time.Millisecond)
}

// PageSize returns the page size, defaulting to 50.
func (c *Config) PageSize() int {
	if c.View.PageSize <= 0 {
		return 50
	}
	return c.View.PageSize
}

// PreferredMirrors returns the preferred provider substrings in priority order.
func (c *Config) PreferredMirrors() []string {
	if len(c.Mirrors.Preferred) == 0 {
		return []string{"pb.wtf", "uztracker.net"}
	}
	return c.Mirrors.Preferred
}

// CachePath returns the durable cache location for file and sqlite backends.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return ExpandPath(c.Cache.Path)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if c.Cache.Backend == BackendSQLite {
		return filepath.Join(dir, "mirrorview.db"), nil
	}
	return filepath.Join(dir, "cache"), nil
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Catalog.URL)
	if err != nil {
		return fmt.Errorf("catalog url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("catalog url scheme must be http or https, got %q", u.Scheme)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendSQLite, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (valid: file, sqlite, redis, none)", c.Cache.Backend)
	}
	return nil
}

// DataDir returns the default data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "mirrorview"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "mirrorview", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
// Values missing from the file keep their defaults; env overrides apply last.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MIRRORVIEW_CATALOG_URL"); v != "" {
		cfg.Catalog.URL = v
	}
	if v := os.Getenv("MIRRORVIEW_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("MIRRORVIEW_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
