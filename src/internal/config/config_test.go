// FILE: src/internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, Validate(defaults()))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "cookie", cfg.Transport.Mode)
	assert.Equal(t, int64(5000), cfg.Transport.HeaderLimit)
	assert.Equal(t, int64(2000), cfg.Transport.FragmentSize)
	assert.Equal(t, "fortephplog", cfg.Transport.CookiePrefix)
	assert.Equal(t, int64(2500), cfg.Watch.IntervalMs)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantumlog.toml")
	content := `
[transport]
mode = "header"
header_limit = 8000

[server]
port = 9090

[logging]
output = "stdout"
level = "debug"
format = "txt"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("QUANTUMLOG_WATCH_INTERVAL_MS", "500")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "header", cfg.Transport.Mode)
	assert.Equal(t, int64(8000), cfg.Transport.HeaderLimit)
	assert.Equal(t, int64(2000), cfg.Transport.FragmentSize, "unset keys keep defaults")
	assert.Equal(t, int64(9090), cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(500), cfg.Watch.IntervalMs)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"UnknownMode", func(c *Config) { c.Transport.Mode = "pigeon" }},
		{"TinyHeaderLimit", func(c *Config) { c.Transport.HeaderLimit = 10 }},
		{"HugeFragment", func(c *Config) { c.Transport.FragmentSize = 5000 }},
		{"BadCookiePrefix", func(c *Config) { c.Transport.CookiePrefix = "a b" }},
		{"EmptyHeaderName", func(c *Config) { c.Transport.HeaderName = "" }},
		{"ZeroBacktrace", func(c *Config) { c.Transport.BacktraceLevel = 0 }},
		{"BadPort", func(c *Config) { c.Server.Port = 70000 }},
		{"ZeroPort", func(c *Config) { c.Server.Port = 0 }},
		{"HostnameNotIP", func(c *Config) { c.Server.Host = "localhost" }},
		{"BlankCookiePrefix", func(c *Config) { c.Transport.CookiePrefix = "   " }},
		{"BadMetricsPath", func(c *Config) { c.Server.MetricsPath = "metrics" }},
		{"RateLimitWithoutRate", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerSecond = 0
		}},
		{"WatchFTP", func(c *Config) { c.Watch.URL = "ftp://example.test" }},
		{"WatchFastInterval", func(c *Config) { c.Watch.IntervalMs = 1 }},
		{"WatchFormat", func(c *Config) { c.Watch.Format = "xml" }},
		{"FilterType", func(c *Config) { c.Watch.Filters = []FilterConfig{{Type: "keep"}} }},
		{"FilterLogic", func(c *Config) { c.Watch.Filters = []FilterConfig{{Logic: "xor"}} }},
		{"FilterRegex", func(c *Config) { c.Watch.Filters = []FilterConfig{{Patterns: []string{"["}}} }},
		{"LogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"LogOutput", func(c *Config) { c.Logging.Output = "file" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateNormalizesMode(t *testing.T) {
	cfg := defaults()
	cfg.Transport.Mode = " Both "
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "both", cfg.Transport.Mode)
}

func TestValidateWatchFileSkipsURL(t *testing.T) {
	cfg := defaults()
	cfg.Watch.URL = ""
	cfg.Watch.File = "page.html"
	assert.NoError(t, Validate(cfg))
}

func TestValidateNilLogging(t *testing.T) {
	cfg := defaults()
	cfg.Logging = nil
	require.NoError(t, Validate(cfg))
	assert.NotNil(t, cfg.Logging)
	assert.Error(t, Validate(nil))
}

func TestCustomEnvTransform(t *testing.T) {
	assert.Equal(t, "QUANTUMLOG_TRANSPORT_HEADER_LIMIT", customEnvTransform("transport.header_limit"))
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("QUANTUMLOG_CONFIG_FILE", "")
	t.Setenv("QUANTUMLOG_CONFIG_DIR", "")
	assert.Equal(t, "quantumlog.toml", GetConfigPath())

	t.Setenv("QUANTUMLOG_CONFIG_DIR", "/etc/quantumlog")
	assert.Equal(t, "/etc/quantumlog/quantumlog.toml", GetConfigPath())

	t.Setenv("QUANTUMLOG_CONFIG_FILE", "custom.toml")
	assert.Equal(t, "/etc/quantumlog/custom.toml", GetConfigPath())

	t.Setenv("QUANTUMLOG_CONFIG_FILE", "/abs/q.toml")
	assert.Equal(t, "/abs/q.toml", GetConfigPath())
}
