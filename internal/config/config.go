package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/histdigest/config.yaml"

// Grouping modes for digest output.
const (
	ModeDaily  = "daily"
	ModeWeekly = "weekly"
)

// Config holds all histdigest configuration.
type Config struct {
	Output        OutputConfig       `yaml:"output"`
	Capture       CaptureConfig      `yaml:"capture"`
	Sources       SourcesConfig      `yaml:"sources"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

type OutputConfig struct {
	Dir           string `yaml:"dir"`
	Mode          string `yaml:"mode"`
	DomainSummary bool   `yaml:"domain_summary"`
}

type CaptureConfig struct {
	ExcludedPrefixes    []string `yaml:"excluded_prefixes"`
	TrackingParams      []string `yaml:"tracking_params"`
	ExtraTrackingParams []string `yaml:"extra_tracking_params"`
	DenylistDomains     []string `yaml:"denylist_domains"`
	DenylistRegex       []string `yaml:"denylist_regex"`
	UseDefaultDenylist  bool     `yaml:"use_default_denylist"`
}

type SourcesConfig struct {
	Chrome         ChromeConfig `yaml:"chrome"`
	Safari         SafariConfig `yaml:"safari"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
}

type ChromeConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseDir string `yaml:"base_dir"`
}

type SafariConfig struct {
	Enabled     bool   `yaml:"enabled"`
	HistoryPath string `yaml:"history_path"`
}

type StorageConfig struct {
	Path           string `yaml:"path"`
	SQLiteFile     string `yaml:"sqlite_file"`
	RunHistoryDays int    `yaml:"run_history_days"`
}

type NotificationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML,
// or fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Output.Mode {
	case ModeDaily, ModeWeekly:
	default:
		return fmt.Errorf("invalid output.mode %q (use %q or %q)", c.Output.Mode, ModeDaily, ModeWeekly)
	}
	if c.Sources.TimeoutSeconds <= 0 {
		return fmt.Errorf("sources.timeout_seconds must be positive, got %d", c.Sources.TimeoutSeconds)
	}
	for _, expr := range c.Capture.DenylistRegex {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("invalid capture.denylist_regex %q: %w", expr, err)
		}
	}
	return nil
}

// TrackingKeys returns the effective tracking-parameter set: the configured
// table plus any extra keys, lower-cased and de-duplicated.
func (c *Config) TrackingKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, list := range [][]string{c.Capture.TrackingParams, c.Capture.ExtraTrackingParams} {
		for _, k := range list {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Denylist returns the configured host denylist, merged with the curated
// default list when use_default_denylist is set.
func (c *Config) Denylist() Denylist {
	d := Denylist{
		Domains: append([]string{}, c.Capture.DenylistDomains...),
		Regex:   append([]string{}, c.Capture.DenylistRegex...),
	}
	if c.Capture.UseDefaultDenylist {
		def := DefaultDenylist()
		d.Domains = append(d.Domains, def.Domains...)
		d.Regex = append(d.Regex, def.Regex...)
	}
	return d
}

// ProviderTimeout is the per-provider fetch budget.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Sources.TimeoutSeconds) * time.Second
}

// OutputDir returns the expanded digest output directory.
func (c *Config) OutputDir() (string, error) {
	return ExpandPath(c.Output.Dir)
}

// StateDBPath returns the expanded path of the state database.
func (c *Config) StateDBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
