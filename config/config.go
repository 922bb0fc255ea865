package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvScanFolder   = "MCP_SCAN_FOLDER"
	EnvScanInterval = "MCP_SCAN_INTERVAL"
	EnvDBPath       = "MCP_DB_PATH"
	EnvModels       = "MCP_SPACY_MODELS"
)

// Config holds all configuration for the indexer.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Store   StoreConfig   `yaml:"store"`
	Models  ModelsConfig  `yaml:"models"`
	Server  ServerConfig  `yaml:"server"`
	Query   QueryConfig   `yaml:"query"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig holds scanning configuration.
type ScanConfig struct {
	Folder   string        `yaml:"folder"`
	Interval time.Duration `yaml:"interval"`
	Includes []string      `yaml:"includes"`
	Excludes []string      `yaml:"excludes"`
	Watch    bool          `yaml:"watch"`    // Trigger early cycles on filesystem events
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a watch-triggered cycle
}

// StoreConfig holds index store configuration.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "bolt", "sqlite", "memory"
	Path   string `yaml:"path"`
}

// ModelsConfig lists the tagging models. The first one is the fallback.
type ModelsConfig struct {
	Names []string `yaml:"names"`
}

// ServerConfig holds MCP server configuration.
type ServerConfig struct {
	Transport   string `yaml:"transport"` // "stdio" or "http"
	Addr        string `yaml:"addr"`
	Path        string `yaml:"path"`
	MetricsPath string `yaml:"metrics_path"` // Served next to the MCP endpoint over http; empty disables
}

// QueryConfig holds query cache configuration.
type QueryConfig struct {
	CacheSize int           `yaml:"cache_size"` // 0 disables the cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "auto", "json", "text"
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Folder:   "/markdowns",
			Interval: 60 * time.Second,
			Includes: []string{"**/*.md"},
			Excludes: []string{"**/.git/**", "**/node_modules/**"},
			Watch:    false,
			Debounce: 2 * time.Second,
		},
		Store: StoreConfig{
			Driver: "bolt",
			Path:   "./model_context.db",
		},
		Models: ModelsConfig{
			Names: []string{"en_rules", "de_rules"},
		},
		Server: ServerConfig{
			Transport:   "stdio",
			Addr:        "0.0.0.0:8000",
			Path:        "/mcp",
			MetricsPath: "/metrics",
		},
		Query: QueryConfig{
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for mdindex.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "mdindex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".mdindex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvScanFolder); ok && v != "" {
		c.Scan.Folder = v
	}
	if v, ok := lookup(EnvScanInterval); ok && v != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvScanInterval, err)
		}
		c.Scan.Interval = time.Duration(secs) * time.Second
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.Store.Path = v
	}
	if v, ok := lookup(EnvModels); ok && v != "" {
		var names []string
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		c.Models.Names = names
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.Folder == "" {
		errs = append(errs, errors.New("scan.folder is empty"))
	}
	if c.Scan.Interval <= 0 {
		errs = append(errs, fmt.Errorf("scan.interval must be positive, got %s", c.Scan.Interval))
	}
	if len(c.Models.Names) == 0 {
		errs = append(errs, errors.New("models.names is empty; the first model is the fallback"))
	}
	switch c.Store.Driver {
	case "bolt", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of bolt, sqlite, memory", c.Store.Driver))
	}
	if c.Store.Driver != "memory" && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is empty"))
	}
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("server.transport %q is not one of stdio, http", c.Server.Transport))
	}
	if c.Query.CacheSize < 0 {
		errs = append(errs, errors.New("query.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}
