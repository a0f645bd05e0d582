package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("listen-addr", defaultListenAddr, "")
	flags.String("metrics-addr", defaultMetricsAddr, "")
	flags.String("log-format", defaultLogFormat, "")
	flags.Duration("sweep-interval", defaultSweepInterval, "")
	return flags
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(serveFlags(), "")
		require.NoError(t, err)
		assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
		assert.Equal(t, defaultMetricsAddr, cfg.MetricsAddr)
		assert.Equal(t, defaultLogFormat, cfg.LogFormat)
		assert.Equal(t, defaultSweepInterval, cfg.SweepInterval)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, "listen_addr: 0.0.0.0:9999\nlog_format: text\n")

		cfg, err := loadConfig(serveFlags(), path)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, defaultMetricsAddr, cfg.MetricsAddr)
	})

	t.Run("explicit flags override file", func(t *testing.T) {
		path := writeConfigFile(t, "listen_addr: 0.0.0.0:9999\nsweep_interval: 1m\n")

		flags := serveFlags()
		require.NoError(t, flags.Set("listen-addr", "127.0.0.1:7777"))

		cfg, err := loadConfig(flags, path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7777", cfg.ListenAddr)
		assert.Equal(t, time.Minute, cfg.SweepInterval)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := loadConfig(serveFlags(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := writeConfigFile(t, "listen_addr: [broken\n")
		_, err := loadConfig(serveFlags(), path)
		assert.Error(t, err)
	})
}

func TestServeConfigValidate(t *testing.T) {
	valid := func() *serveConfig {
		return &serveConfig{
			ListenAddr:    defaultListenAddr,
			MetricsAddr:   defaultMetricsAddr,
			LogFormat:     defaultLogFormat,
			SweepInterval: defaultSweepInterval,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("empty listen addr", func(t *testing.T) {
		cfg := valid()
		cfg.ListenAddr = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := valid()
		cfg.LogFormat = "xml"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative sweep interval", func(t *testing.T) {
		cfg := valid()
		cfg.SweepInterval = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty metrics addr disables metrics", func(t *testing.T) {
		cfg := valid()
		cfg.MetricsAddr = ""
		assert.NoError(t, cfg.Validate())
	})
}
