// Package config loads LogOps configuration from YAML files and
// environment variables. Credentials are never baked in: API keys only
// ever come from the config file or the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Model   ModelConfig   `mapstructure:"model"`
	Logs    LogsConfig    `mapstructure:"logs"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StoreConfig holds the search store connection settings
type StoreConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Index  string `mapstructure:"index"`
}

// ModelConfig holds the remote analysis model settings. Leaving APIKey
// empty disables the remote tier entirely.
type ModelConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Name   string `mapstructure:"name"`
}

// LogsConfig holds the fallback log file settings
type LogsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds application logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns a Config with default values. No credential has a
// default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Store: StoreConfig{
			URL:   "http://localhost:9200",
			Index: "logops-logs",
		},
		Model: ModelConfig{
			URL:  "https://api.together.xyz/v1/chat/completions",
			Name: "meta-llama/Llama-3-8b-chat-hf",
		},
		Logs: LogsConfig{
			Dir: "logs",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.logops.yaml or ./.logops.yml
// 2. ~/.logops.yaml or ~/.logops.yml
// 3. $XDG_CONFIG_HOME/logops/config.yaml (or ~/.config/logops/config.yaml)
// 4. /etc/logops/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}

		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path, still
// applying environment overrides on top
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".logops.yaml", ".logops.yml", "logops.yaml", "logops.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string

	cwd, err := os.Getwd()
	if err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "logops"))
	}
	searchPaths = append(searchPaths, "/etc/logops")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGOPS_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("LOGOPS_STORE_URL"); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv("LOGOPS_STORE_API_KEY"); v != "" {
		cfg.Store.APIKey = v
	}
	if v := os.Getenv("LOGOPS_STORE_INDEX"); v != "" {
		cfg.Store.Index = v
	}
	if v := os.Getenv("LOGOPS_MODEL_URL"); v != "" {
		cfg.Model.URL = v
	}
	if v := os.Getenv("LOGOPS_MODEL_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("LOGOPS_MODEL_NAME"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("LOGOPS_LOGS_DIR"); v != "" {
		cfg.Logs.Dir = v
	}
	if v := os.Getenv("LOGOPS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
