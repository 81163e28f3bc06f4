package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmorrow/flowplan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify flowplan configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/flowplan/config.yaml
Project-specific overrides can be placed in .flowplan.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orNotSet(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orNotSet(cfg.Anthropic.AWSRegion))
	fmt.Printf("anthropic.aws_profile: %s\n", orNotSet(cfg.Anthropic.AWSProfile))
	fmt.Printf("oracle.enabled: %t\n", cfg.Oracle.Enabled)
	fmt.Printf("oracle.timeout: %s\n", cfg.Oracle.Timeout)
	fmt.Printf("defaults.granularity: %s\n", cfg.Defaults.Granularity)
	fmt.Printf("defaults.direction: %s\n", cfg.Defaults.Direction)
	fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	fmt.Printf("\nAPI key source: %s\n", config.GetAPIKeySource(cfg))
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orNotSet(cfg.Anthropic.Model), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return orNotSet(cfg.Anthropic.AWSRegion), nil
	case "anthropic.aws_profile":
		return orNotSet(cfg.Anthropic.AWSProfile), nil
	case "oracle.enabled":
		return strconv.FormatBool(cfg.Oracle.Enabled), nil
	case "oracle.timeout":
		return cfg.Oracle.Timeout.String(), nil
	case "defaults.granularity":
		return cfg.Defaults.Granularity, nil
	case "defaults.direction":
		return cfg.Defaults.Direction, nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "oracle.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for oracle.enabled: %w", err)
		}
		cfg.Oracle.Enabled = b
	case "oracle.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for oracle.timeout: %w", err)
		}
		cfg.Oracle.Timeout = d
	case "defaults.granularity":
		switch value {
		case "low", "medium", "high":
			cfg.Defaults.Granularity = value
		default:
			return fmt.Errorf("invalid granularity %q (want low, medium, or high)", value)
		}
	case "defaults.direction":
		cfg.Defaults.Direction = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for history.enabled: %w", err)
		}
		cfg.History.Enabled = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
