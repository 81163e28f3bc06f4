// Package config handles configuration loading and management for flowplan.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for flowplan.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	History   HistoryConfig   `mapstructure:"history"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OracleConfig holds settings for the optional LLM proposal path.
type OracleConfig struct {
	// Enabled turns oracle consultation on. Off, only the heuristic
	// decomposer runs.
	Enabled bool `mapstructure:"enabled"`
	// Timeout bounds a single oracle call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultsConfig holds default values for decompose runs.
type DefaultsConfig struct {
	Granularity string `mapstructure:"granularity"`
	Direction   string `mapstructure:"direction"`
}

// HistoryConfig holds result history settings.
type HistoryConfig struct {
	// Enabled controls whether results are persisted to the local
	// history database.
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, FLOWPLAN_MODEL)
// 2. Project config (.flowplan.yaml in current directory or parent)
// 3. User config (~/.config/flowplan/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")

	// Map specific environment variables
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "FLOWPLAN_MODEL")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("oracle.enabled", cfg.Oracle.Enabled)
	v.Set("oracle.timeout", cfg.Oracle.Timeout.String())
	v.Set("defaults.granularity", cfg.Defaults.Granularity)
	v.Set("defaults.direction", cfg.Defaults.Direction)
	v.Set("history.enabled", cfg.History.Enabled)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Oracle defaults
	v.SetDefault("oracle.enabled", true)
	v.SetDefault("oracle.timeout", "60s")

	// Decompose defaults
	v.SetDefault("defaults.granularity", "medium")
	v.SetDefault("defaults.direction", "TD")

	// History defaults
	v.SetDefault("history.enabled", true)
}

// getUserConfigDir returns the XDG config directory for flowplan.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "flowplan")
	}

	// Fall back to ~/.config/flowplan
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "flowplan")
	}
	return filepath.Join(home, ".config", "flowplan")
}

// findProjectConfig searches for .flowplan.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".flowplan.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			APIKey: "",
		},
		Oracle: OracleConfig{
			Enabled: true,
			Timeout: 60 * time.Second,
		},
		Defaults: DefaultsConfig{
			Granularity: "medium",
			Direction:   "TD",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
