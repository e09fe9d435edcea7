// Package config reads runtime settings from an optional YAML file and the
// RECORDS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
)

type Args struct {
	ConfigPath string
}

type Config struct {
	LogLevel       string `yaml:"log_level" env:"RECORDS_LOG_LEVEL" env-default:"info" env-description:"Logger level (debug, info, warn, error)"`
	LogLevelFormat string `yaml:"log_level_format" env:"RECORDS_LOG_LEVEL_FORMAT" env-default:"capital" env-description:"Level encoder (capital, capitalColor, lowercase)"`
	LogFormat      string `yaml:"log_format" env:"RECORDS_LOG_FORMAT" env-default:"console" env-description:"Log encoding (console, json)"`
	LogFilePath    string `yaml:"log_file_path" env:"RECORDS_LOG_FILE" env-description:"Optional rotated debug log file"`
	Home           string `yaml:"home" env:"RECORDS_HOME" env-description:"Cache root for fetched fixture sources (default ~/.records)"`
}

// Load reads path when it is set, then applies the environment on top.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read environment: %w", err)
	}
	return &cfg, nil
}

// CacheDir is where fixture sources are cloned.
func (c *Config) CacheDir() (string, error) {
	if c.Home != "" {
		return filepath.Join(c.Home, "cache"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".records", "cache"), nil
}

// ProcessArgs registers the --config flag and appends the environment
// variable help to the command's usage.
func ProcessArgs(cfg any, a *Args, cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&a.ConfigPath, "config", "c", "", "Path to configuration file")

	envHelp, _ := cleanenv.GetDescription(cfg, nil)
	cmd.SetUsageTemplate(envHelp + "\n" + cmd.UsageTemplate())
}
