// ABOUTME: Client configuration stored at XDG config paths
// ABOUTME: Layers .env, the YAML file, defaults and TIDDLE_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/tiddle/bubble"
	"github.com/harperreed/tiddle/cache"
	"github.com/harperreed/tiddle/session"
	"github.com/harperreed/tiddle/store"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://tiddlecampaigns.com/version-test/api/1.1/obj"
	DefaultWorkflowURL = "https://tiddlecampaigns.com/version-test/api/1.1/wf"
	DefaultLogLevel    = "warn"

	ConfigFileName = "config.yaml"
)

// Config is everything needed to reach the backend and tune the client.
type Config struct {
	BaseURL     string                     `yaml:"base_url"`
	WorkflowURL string                     `yaml:"workflow_url"`
	Timeout     time.Duration              `yaml:"timeout"`
	PageSize    int                        `yaml:"page_size"`
	Retries     int                        `yaml:"retries"`
	LogLevel    string                     `yaml:"log_level"`
	DataDir     string                     `yaml:"data_dir,omitempty"`
	DefaultAuth bubble.AuthMode            `yaml:"default_auth"`
	Auth        map[string]bubble.AuthMode `yaml:"auth,omitempty"`
	TTL         store.TTLs                 `yaml:"ttl"`
}

func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		WorkflowURL: DefaultWorkflowURL,
		Timeout:     bubble.DefaultTimeout,
		PageSize:    bubble.DefaultPageSize,
		Retries:     cache.DefaultRetries,
		LogLevel:    DefaultLogLevel,
		DefaultAuth: bubble.AuthRequired,
		Auth: map[string]bubble.AuthMode{
			"wf/login": bubble.AuthNone,
		},
		TTL: store.DefaultTTLs(),
	}
}

// Path returns $XDG_CONFIG_HOME/tiddle/config.yaml.
func Path() string {
	return filepath.Join(xdg.ConfigHome, session.AppName, ConfigFileName)
}

// Load reads .env from the working directory, then the YAML file at path
// (Path() when empty), then applies TIDDLE_* overrides. Missing files
// are not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if path == "" {
		path = Path()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies the environment on top of file values:
// - TIDDLE_BASE_URL
// - TIDDLE_WF_BASE_URL
// - TIDDLE_TIMEOUT (Go duration, e.g. 20s)
// - TIDDLE_PAGE_SIZE
// - TIDDLE_LOG_LEVEL
// - TIDDLE_DATA_DIR
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TIDDLE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("TIDDLE_WF_BASE_URL"); v != "" {
		cfg.WorkflowURL = v
	}
	if v := os.Getenv("TIDDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TIDDLE_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("TIDDLE_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TIDDLE_PAGE_SIZE %q: %w", v, err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("TIDDLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TIDDLE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.WorkflowURL == "" {
		c.WorkflowURL = d.WorkflowURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.DefaultAuth == "" {
		c.DefaultAuth = d.DefaultAuth
	}
}

func validAuth(m bubble.AuthMode) bool {
	switch m {
	case bubble.AuthRequired, bubble.AuthOptional, bubble.AuthNone:
		return true
	}
	return false
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if c.PageSize > bubble.MaxPageSize {
		return fmt.Errorf("page_size %d exceeds the maximum of %d", c.PageSize, bubble.MaxPageSize)
	}
	if !validAuth(c.DefaultAuth) {
		return fmt.Errorf("invalid default_auth %q", c.DefaultAuth)
	}
	for endpoint, mode := range c.Auth {
		if !validAuth(mode) {
			return fmt.Errorf("invalid auth mode %q for %s", mode, endpoint)
		}
	}
	return nil
}

// Bubble converts the config into gateway settings.
func (c *Config) Bubble() bubble.Config {
	auth := make(map[string]bubble.AuthMode, len(c.Auth))
	for k, v := range c.Auth {
		auth[k] = v
	}
	return bubble.Config{
		ObjBaseURL:  c.BaseURL,
		WfBaseURL:   c.WorkflowURL,
		Timeout:     c.Timeout,
		PageSize:    c.PageSize,
		DefaultAuth: c.DefaultAuth,
		Auth:        auth,
	}
}

// CacheOptions returns the cache retry settings.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{Retries: c.Retries}
}

// SessionDir is where the session database lives.
func (c *Config) SessionDir() string {
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "session")
	}
	return session.DefaultDir()
}

// Save writes the config as YAML to path (Path() when empty) with 0600 perms.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
