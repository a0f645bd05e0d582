package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/xdg"
)

// serveConfig holds configuration for the serve command.
type serveConfig struct {
	ListenAddr    string        `koanf:"listen_addr"`
	MetricsAddr   string        `koanf:"metrics_addr"`
	LogFormat     string        `koanf:"log_format"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// Default values for serve command flags.
const (
	defaultListenAddr    = "127.0.0.1:8080"
	defaultMetricsAddr   = "127.0.0.1:9100"
	defaultLogFormat     = "json"
	defaultSweepInterval = 10 * time.Minute
)

// Validate checks that the configuration is valid.
func (cfg *serveConfig) Validate() error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen-addr is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if cfg.SweepInterval < 0 {
		return fmt.Errorf("sweep-interval cannot be negative")
	}
	return nil
}

// loadConfig merges configuration in precedence order: flag defaults, then
// the YAML config file if one exists, then explicitly set flags.
func loadConfig(flags *pflag.FlagSet, path string) (*serveConfig, error) {
	k := koanf.New(".")

	if path == "" {
		// Only use the XDG default when the file actually exists; a
		// missing explicit --config is an error below.
		if candidate := xdg.ConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Flag names use dashes; config keys use underscores.
	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	cfg := &serveConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
