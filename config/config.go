// Package config provides configuration for the setup server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvProvider abstracts environment variable access for testing
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetDefaultDataDir returns the default data directory following the XDG
// Base Directory specification.
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	xdgDataHome := env.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "sendwell-setup")
	}

	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "sendwell-setup")
}

// Config holds configuration for the setup server.
type Config struct {
	// Core paths
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`

	// Logging
	LogLevel     string `yaml:"log_level"`
	ColorEnabled bool   `yaml:"color_enabled"`

	// HTTP server
	HTTPHost string `yaml:"http_host"`
	HTTPPort int    `yaml:"http_port"`

	// SetupEnabled gates the setup endpoint. When false the server refuses
	// new runs so an installed product cannot be re-provisioned by accident.
	SetupEnabled bool `yaml:"setup_enabled"`

	// Project naming
	ProjectBaseName string `yaml:"project_base_name"`

	// Outbound platform calls
	GitTimeout  time.Duration `yaml:"git_timeout"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Readiness polling
	DatabaseReadyInterval time.Duration `yaml:"database_ready_interval"`
	DatabaseReadyDeadline time.Duration `yaml:"database_ready_deadline"`
	DeployReadyInterval   time.Duration `yaml:"deploy_ready_interval"`
	DeployReadyDeadline   time.Duration `yaml:"deploy_ready_deadline"`

	env EnvProvider
}

// NewConfig creates a configuration from defaults, an optional YAML config
// file, and environment variables, in increasing order of precedence.
func NewConfig(configFile string) (*Config, error) {
	return NewConfigWithEnv(&DefaultEnvProvider{}, configFile)
}

// NewConfigWithEnv creates a configuration with a custom environment provider (for testing)
func NewConfigWithEnv(env EnvProvider, configFile string) (*Config, error) {
	c := &Config{env: env}
	c.setDefaults()

	if configFile != "" {
		if err := c.loadFromFile(configFile); err != nil {
			return nil, err
		}
	}

	c.loadFromEnv()
	c.derivePaths()

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

func (c *Config) setDefaults() {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.LogLevel = "info"
	c.ColorEnabled = true
	c.HTTPHost = "127.0.0.1"
	c.HTTPPort = 8080
	c.SetupEnabled = true
	c.ProjectBaseName = "sendwell"
	c.GitTimeout = 30 * time.Second
	c.HTTPTimeout = 30 * time.Second
	c.DatabaseReadyInterval = 10 * time.Second
	c.DatabaseReadyDeadline = 5 * time.Minute
	c.DeployReadyInterval = 10 * time.Second
	c.DeployReadyDeadline = 10 * time.Minute
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if v := c.env.Getenv("SENDWELL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := c.env.Getenv("SENDWELL_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := c.env.Getenv("SENDWELL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := c.env.Getenv("SENDWELL_COLOR_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ColorEnabled = enabled
		}
	}
	if v := c.env.Getenv("SENDWELL_HTTP_HOST"); v != "" {
		c.HTTPHost = v
	}
	if v := c.env.Getenv("SENDWELL_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := c.env.Getenv("SENDWELL_SETUP_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.SetupEnabled = enabled
		}
	}
	if v := c.env.Getenv("SENDWELL_PROJECT_BASE_NAME"); v != "" {
		c.ProjectBaseName = v
	}
	if v := c.env.Getenv("SENDWELL_GIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.GitTimeout = d
		}
	}
	if v := c.env.Getenv("SENDWELL_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTPTimeout = d
		}
	}
	if v := c.env.Getenv("SENDWELL_DB_READY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DatabaseReadyInterval = d
		}
	}
	if v := c.env.Getenv("SENDWELL_DB_READY_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DatabaseReadyDeadline = d
		}
	}
	if v := c.env.Getenv("SENDWELL_DEPLOY_READY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DeployReadyInterval = d
		}
	}
	if v := c.env.Getenv("SENDWELL_DEPLOY_READY_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DeployReadyDeadline = d
		}
	}
}

// derivePaths calculates dependent paths from the base DataDir
func (c *Config) derivePaths() {
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "sendwell-setup.db")
	}
}

func (c *Config) validate() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warning": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warning, or error)", c.LogLevel)
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d (must be 1-65535)", c.HTTPPort)
	}

	if c.GitTimeout <= 0 {
		return fmt.Errorf("git timeout must be positive, got: %v", c.GitTimeout)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got: %v", c.HTTPTimeout)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"database ready interval", c.DatabaseReadyInterval},
		{"database ready deadline", c.DatabaseReadyDeadline},
		{"deploy ready interval", c.DeployReadyInterval},
		{"deploy ready deadline", c.DeployReadyDeadline},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got: %v", d.name, d.value)
		}
	}

	if c.ProjectBaseName == "" {
		return fmt.Errorf("project base name cannot be empty")
	}

	return nil
}

// GetLogLevel returns the configured log level
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}
