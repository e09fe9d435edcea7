package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("RECORDS_LOG_LEVEL", "debug")
	t.Setenv("RECORDS_HOME", "/tmp/records-home")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, "capital", cfg.LogLevelFormat)

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/records-home", "cache"), dir)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nlog_format: json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "capital", cfg.LogLevelFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestProcessArgsAddsConfigFlag(t *testing.T) {
	var cfg Config
	var args Args
	cmd := &cobra.Command{Use: "records"}
	ProcessArgs(&cfg, &args, cmd)

	require.NoError(t, cmd.PersistentFlags().Set("config", "custom.yaml"))
	require.Equal(t, "custom.yaml", args.ConfigPath)
	require.Contains(t, cmd.UsageTemplate(), "RECORDS_LOG_LEVEL")
}
