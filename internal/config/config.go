// Package config loads and validates the application configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	// AccountRoot is the exported account's encrypted attachment tree.
	AccountRoot string `yaml:"account_root" mapstructure:"account_root"`
	// OutputRoot is where decrypted images are cached.
	OutputRoot string `yaml:"output_root" mapstructure:"output_root"`
	// XORKey is the 1-byte hex key, e.g. "0x37".
	XORKey string `yaml:"xor_key" mapstructure:"xor_key"`
	// AESKey is the optional image key (16+ characters). Required only for
	// accounts whose blobs are hybrid-v2 encrypted.
	AESKey string `yaml:"aes_key" mapstructure:"aes_key"`
	// FolderLabel optionally prettifies the first output path segment.
	FolderLabel string `yaml:"folder_label" mapstructure:"folder_label"`
	// Workers bounds export concurrency.
	Workers int `yaml:"workers" mapstructure:"workers"`

	Serve ServeConfig `yaml:"serve" mapstructure:"serve"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// ServeConfig configures the HTTP media endpoint.
type ServeConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging with rotation support.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`               // Log file path (empty = console only)
	Level      string `yaml:"level" mapstructure:"level"`             // debug, info, warn, error
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // Max size in MB before rotation
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // Max age in days to keep files
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // Max number of old files to keep
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // Compress old log files
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers: 4,
		Serve: ServeConfig{
			Port: 5080,
		},
		Log: LogConfig{
			File:       "",
			Level:      "info",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 5,
			Compress:   true,
		},
	}
}

// Validate checks the configuration for inconsistencies. Key and path
// presence is deliberately not enforced here: resolution reports missing
// configuration per request, and commands like decrypt work without any
// account configured.
func (c *Config) Validate() error {
	if c.Serve.Port <= 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve port must be between 1 and 65535")
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if c.Log.Level != "" {
		switch c.Log.Level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log.level must be one of: debug, info, warn, error")
		}
	}

	if c.Log.MaxSize < 0 {
		return fmt.Errorf("log.max_size must be non-negative")
	}
	if c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_age must be non-negative")
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be non-negative")
	}

	return nil
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil, fmt.Errorf("no configuration file found. Please create config.yaml or use --config flag")
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}
