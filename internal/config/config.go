// Package config provides unified configuration loading for neuralgraph.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/neuralgraph/internal/contrib"
	"github.com/nvandessel/neuralgraph/internal/layout"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is the file written when no output path is configured.
const DefaultOutput = "neural_network_graph.svg"

// Config contains all neuralgraph configuration settings.
type Config struct {
	// GitHub contains the contribution API settings.
	GitHub GitHubConfig `json:"github" yaml:"github"`

	// Render contains output settings.
	Render RenderConfig `json:"render" yaml:"render"`

	// Cache contains grid cache settings.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Logging contains settings for operational logging and run tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GitHubConfig configures the contribution calendar query.
type GitHubConfig struct {
	// Token is the bearer token. Supports ${VAR} syntax for env vars.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Owner is the login whose calendar is rendered.
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Endpoint is the GraphQL endpoint URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Timeout bounds the request. Zero uses the transport default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Live reports whether both token and owner are set.
func (c GitHubConfig) Live() bool {
	return c.Token != "" && c.Owner != ""
}

// RedactedToken returns the token with most characters masked.
// Shows first 4 and last 4 characters, e.g., "ghp_...xyz9".
// Returns "" for empty tokens and "(set)" for tokens shorter than 12 chars.
func (c GitHubConfig) RedactedToken() string {
	if c.Token == "" {
		return ""
	}
	if len(c.Token) < 12 {
		return "(set)"
	}
	return c.Token[:4] + "..." + c.Token[len(c.Token)-4:]
}

// String implements fmt.Stringer to keep the token out of logs.
func (c GitHubConfig) String() string {
	return fmt.Sprintf("GitHubConfig{Owner:%s, Token:%s, Endpoint:%s}",
		c.Owner, c.RedactedToken(), c.Endpoint)
}

// RenderConfig configures the generated document.
type RenderConfig struct {
	// Output is the path the document is written to.
	Output string `json:"output" yaml:"output"`

	// StepTime is the pulse time per grid cell, in seconds.
	StepTime float64 `json:"step_time" yaml:"step_time"`

	// DiscoverySeed seeds the reveal ordering of active cells.
	DiscoverySeed uint64 `json:"discovery_seed" yaml:"discovery_seed"`
}

// CacheConfig configures the grid cache.
type CacheConfig struct {
	// Enabled stores every successful live fetch. Off by default.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir holds grids.db and runs.jsonl. Defaults to ~/.neuralgraph.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" and "trace" also append pipeline events to runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			Endpoint: contrib.DefaultEndpoint,
		},
		Render: RenderConfig{
			Output:        DefaultOutput,
			StepTime:      layout.DefaultStepTime,
			DiscoverySeed: layout.DefaultDiscoverySeed,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the neuralgraph home directory, ~/.neuralgraph.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".neuralgraph"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.neuralgraph/config.yaml -> environment variables
func Load() (*Config, error) {
	cfg := Default()

	if dir, err := Dir(); err == nil {
		path := filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(path); statErr == nil {
			fileCfg, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			cfg = fileCfg
		}
		if cfg.Cache.Dir == "" {
			cfg.Cache.Dir = dir
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.GitHub.Token = expandEnvVars(cfg.GitHub.Token)
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.GitHub.Timeout)
	}

	if c.Render.StepTime <= 0 {
		return fmt.Errorf("step_time must be positive, got %g", c.Render.StepTime)
	}

	if c.Render.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Values that fail to parse are reported instead of ignored.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}

	if v := os.Getenv("GITHUB_REPOSITORY_OWNER"); v != "" {
		cfg.GitHub.Owner = v
	}

	if v := os.Getenv("NEURALGRAPH_ENDPOINT"); v != "" {
		cfg.GitHub.Endpoint = v
	}

	if v := os.Getenv("NEURALGRAPH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NEURALGRAPH_TIMEOUT %q: %w", v, err)
		}
		cfg.GitHub.Timeout = d
	}

	if v := os.Getenv("NEURALGRAPH_OUTPUT"); v != "" {
		cfg.Render.Output = v
	}

	if v := os.Getenv("NEURALGRAPH_DISCOVERY_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid NEURALGRAPH_DISCOVERY_SEED %q: %w", v, err)
		}
		cfg.Render.DiscoverySeed = n
	}

	if v := os.Getenv("NEURALGRAPH_CACHE"); v != "" {
		cfg.Cache.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("NEURALGRAPH_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}

	if v := os.Getenv("NEURALGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
