// FILE: src/internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

const envPrefix = "QUANTUMLOG_"

func defaults() *Config {
	return &Config{
		Transport: TransportConfig{
			Mode:             "cookie",
			HeaderName:       "X-ChromeLogger-Data",
			HeaderLimit:      5000,
			FragmentSize:     2000,
			CookiePrefix:     "fortephplog",
			CookieTTLSeconds: 3600,
			BacktraceLevel:   1,
			MaxDepth:         64,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MetricsPath: "/metrics",
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				BurstSize:         20,
			},
		},
		Watch: WatchConfig{
			URL:              "http://localhost:8080/",
			IntervalMs:       2500,
			RequestTimeoutMs: 5000,
			Format:           "txt",
		},
		Logging: DefaultLogConfig(),
	}
}

// Load builds the configuration from defaults, the TOML file at path,
// QUANTUMLOG_ environment variables and --section.key=value args, in
// increasing precedence. A missing file is not an error.
func Load(path string, args []string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(envPrefix).
		WithFile(path).
		WithArgs(args).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cfg == nil {
		return nil, fmt.Errorf("failed to load config: builder returned no config")
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, Validate(finalConfig)
}

// NewWatcher creates a config instance over the TOML file at path for hot
// reload. current receives the reloaded values.
func NewWatcher(path string, current *Config) (*lconfig.Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	lcfg, err := lconfig.NewBuilder().
		WithFile(path).
		WithTarget(current).
		WithFileFormat("toml").
		WithSecurityOptions(lconfig.SecurityOptions{
			PreventPathTraversal: true,
			MaxFileSize:          10 * 1024 * 1024,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	return lcfg, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "not found")
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = envPrefix + env
	return env
}

// GetConfigPath resolves QUANTUMLOG_CONFIG_FILE and QUANTUMLOG_CONFIG_DIR
func GetConfigPath() string {
	if configFile := os.Getenv("QUANTUMLOG_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("QUANTUMLOG_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("QUANTUMLOG_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "quantumlog.toml")
	}

	return "quantumlog.toml"
}
