// Package config loads and validates the service configuration from a TOML
// file. A .env file next to the working directory is loaded first so the
// database DSN can be supplied through the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ConfigFormatVersion is the supported configuration file format version.
const ConfigFormatVersion = "0.1.0"

// ExecutorConfig holds snippet execution settings.
type ExecutorConfig struct {
	TimeoutSeconds  int    `toml:"timeout_seconds" validate:"gte=0"`   // wall-clock budget per execution
	MaxOutputLength int    `toml:"max_output_length" validate:"gte=0"` // displayed-output truncation limit
	OutputDir       string `toml:"output_dir"`                         // directory snippets write artifacts into
}

// Timeout returns the execution budget as a duration.
func (e *ExecutorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DashboardConfig holds history dashboard settings.
type DashboardConfig struct {
	Port               string `toml:"port"`                 // dashboard HTTP port
	HandleCORS         bool   `toml:"handle_cors"`          // whether to handle CORS
	FileServingEnabled bool   `toml:"file_serving_enabled"` // whether /files serves the output directory
}

// MCPConfig holds tool endpoint settings.
type MCPConfig struct {
	HostName string `toml:"hostname"` // tool endpoint hostname
	Port     string `toml:"port"`     // tool endpoint port
}

// DatabaseConfig holds history store settings.
type DatabaseConfig struct {
	DSN string `toml:"dsn"` // Postgres DSN; CODEFOX_DB_DSN overrides when empty
}

// ConfigParam holds all configuration parameters for the service.
type ConfigParam struct {
	FormatVersion string `toml:"format_version" validate:"required"`
	WorkingDir    string `toml:"working_dir"`

	Executor  ExecutorConfig  `toml:"executor"`
	Dashboard DashboardConfig `toml:"dashboard"`
	MCP       MCPConfig       `toml:"mcp"`
	Database  DatabaseConfig  `toml:"database"`
}

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

// LoadConfig reads, validates and installs the configuration from a file.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("config filename is required")
	}

	// Pick up a .env beside the config file; absence is not an error.
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), ".env"))

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &ConfigParam{}
	if _, err := toml.Decode(string(content), c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	if err := ValidateConfig(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = c
	return nil
}

// ValidateConfig checks required values and fills defaults.
func ValidateConfig(c *ConfigParam) error {
	if c.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", c.FormatVersion)
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Executor.TimeoutSeconds == 0 {
		c.Executor.TimeoutSeconds = 90
	}
	if c.Executor.MaxOutputLength == 0 {
		c.Executor.MaxOutputLength = 3000
	}
	if c.Dashboard.Port == "" {
		c.Dashboard.Port = "8721"
	}
	if c.MCP.HostName == "" {
		c.MCP.HostName = "127.0.0.1"
	}
	if c.MCP.Port == "" {
		c.MCP.Port = "8720"
	}

	if c.WorkingDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %w", err)
		}
		c.WorkingDir = filepath.Join(homeDir, ".codefox")
	}
	if err := os.MkdirAll(c.WorkingDir, 0700); err != nil {
		return fmt.Errorf("error creating working directory: %w", err)
	}

	if c.Executor.OutputDir == "" {
		c.Executor.OutputDir = filepath.Join(c.WorkingDir, "outputs")
	}
	if err := os.MkdirAll(c.Executor.OutputDir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	if c.Database.DSN == "" {
		c.Database.DSN = os.Getenv("CODEFOX_DB_DSN")
	}

	return nil
}
