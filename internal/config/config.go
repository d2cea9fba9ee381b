// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/squirrelhost/host"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Logging   LoggingConfig   `yaml:"logging"`
	Update    UpdateConfig    `yaml:"update"`
}

// ServiceConfig describes how the agent registers with the OS service manager.
type ServiceConfig struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	Description string            `yaml:"description"`
	RunAs       string            `yaml:"run_as"`
	Username    string            `yaml:"username"`
	Password    string            `yaml:"password"`
	Overlapping bool              `yaml:"overlapping"`
	StopTimeout Duration          `yaml:"stop_timeout"`
	Env         map[string]string `yaml:"env"`
}

// HeartbeatConfig holds the sampling settings of the hosted service.
type HeartbeatConfig struct {
	Interval Duration `yaml:"interval"`
}

// LoggingConfig holds logging settings. File rotation applies only when File is set.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// UpdateConfig holds auto-update settings.
type UpdateConfig struct {
	Enabled       bool     `yaml:"enabled"`
	CheckInterval Duration `yaml:"check_interval"`
	InitialDelay  Duration `yaml:"initial_delay"`
	APIURL        string   `yaml:"api_url"`
	Repository    string   `yaml:"repository"`
	Prerelease    bool     `yaml:"prerelease"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			RunAs:       "local-system",
			StopTimeout: Duration{30 * time.Second},
		},
		Heartbeat: HeartbeatConfig{
			Interval: Duration{30 * time.Second},
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Update: UpdateConfig{
			Enabled:       false,
			CheckInterval: Duration{1 * time.Hour},
			InitialDelay:  Duration{30 * time.Second},
			APIURL:        "https://api.github.com",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	ServiceName string
	LogLevel    string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cli.ServiceName != "" {
		cfg.Service.Name = cli.ServiceName
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQH_SERVICE_NAME"); v != "" {
		cfg.Service.Name = v
	}
	if v := os.Getenv("SQH_RUN_AS"); v != "" {
		cfg.Service.RunAs = v
	}
	if v := os.Getenv("SQH_SERVICE_USER"); v != "" {
		cfg.Service.Username = v
	}
	if v := os.Getenv("SQH_SERVICE_PASSWORD"); v != "" {
		cfg.Service.Password = v
	}
	if v := os.Getenv("SQH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SQH_UPDATE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Update.Enabled = enabled
		}
	}
}

// RunAs parses the configured identity policy.
func (c *Config) RunAs() (host.RunAs, error) {
	return host.ParseRunAs(c.Service.RunAs)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	runAs, err := c.RunAs()
	if err != nil {
		return err
	}
	if runAs == host.RunAsSpecificUser && c.Service.Username == "" {
		return fmt.Errorf("service.username is required when run_as is %q", runAs)
	}
	if c.Heartbeat.Interval.Duration <= 0 {
		return fmt.Errorf("heartbeat.interval must be positive")
	}
	if !c.Update.Enabled {
		return nil
	}
	if c.Update.CheckInterval.Duration < time.Minute {
		return fmt.Errorf("update.check_interval must be at least 1m (got %s)", c.Update.CheckInterval.Duration)
	}
	if owner, name, ok := strings.Cut(c.Update.Repository, "/"); !ok || owner == "" || name == "" {
		return fmt.Errorf("update.repository must be owner/name (got %q)", c.Update.Repository)
	}
	if !strings.HasPrefix(c.Update.APIURL, "https://") {
		// Allow localhost for development
		if !strings.Contains(c.Update.APIURL, "localhost") && !strings.Contains(c.Update.APIURL, "127.0.0.1") {
			return fmt.Errorf("update.api_url must use HTTPS (got: %s)", c.Update.APIURL)
		}
	}
	return nil
}
