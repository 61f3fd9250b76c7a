// FILE: src/internal/config/validation.go
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks every section
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Logging == nil {
		cfg.Logging = DefaultLogConfig()
	}
	if err := validateLogConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := ValidateTransport(&cfg.Transport); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateWatch(&cfg.Watch); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"stdout": true, "stderr": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	validFormats := map[string]bool{
		"txt": true, "json": true, "": true,
	}
	if !validFormats[cfg.Format] {
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	return nil
}

// ValidateTransport checks and normalizes a transport section
func ValidateTransport(t *TransportConfig) error {
	t.Mode = strings.ToLower(strings.TrimSpace(t.Mode))
	validModes := map[string]bool{
		"inline": true, "cookie": true, "header": true, "both": true,
	}
	if !validModes[t.Mode] {
		return fmt.Errorf("invalid mode: %q (valid: inline, cookie, header, both)", t.Mode)
	}

	if err := nonEmpty(t.HeaderName); err != nil {
		return fmt.Errorf("header_name: %w", err)
	}
	if err := nonEmpty(t.CookiePrefix); err != nil {
		return fmt.Errorf("cookie_prefix: %w", err)
	}
	if strings.ContainsAny(t.CookiePrefix, " ;=,") {
		return fmt.Errorf("cookie_prefix %q is not a valid cookie name", t.CookiePrefix)
	}

	// Below the empty envelope size nothing can ever be sent
	if t.HeaderLimit < 100 {
		return fmt.Errorf("header_limit must be at least 100 bytes, got %d", t.HeaderLimit)
	}
	// Browsers reject cookies over 4096 bytes including name and attributes
	if t.FragmentSize < 1 || t.FragmentSize > 4000 {
		return fmt.Errorf("fragment_size must be between 1 and 4000, got %d", t.FragmentSize)
	}
	if t.CookieTTLSeconds < 1 {
		return fmt.Errorf("cookie_ttl_seconds must be positive, got %d", t.CookieTTLSeconds)
	}
	if t.BacktraceLevel < 1 {
		return fmt.Errorf("backtrace_level must be at least 1, got %d", t.BacktraceLevel)
	}
	if t.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", t.MaxDepth)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if err := validPort(s.Port); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if s.Host != "" {
		if err := validIP(s.Host); err != nil {
			return fmt.Errorf("invalid host address: %w", err)
		}
	}
	if !strings.HasPrefix(s.MetricsPath, "/") {
		return fmt.Errorf("metrics_path must start with '/': %s", s.MetricsPath)
	}

	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit.requests_per_second must be positive")
		}
		if s.RateLimit.BurstSize < 1 {
			return fmt.Errorf("rate_limit.burst_size must be at least 1")
		}
	}
	return nil
}

func validateWatch(w *WatchConfig) error {
	if w.File == "" {
		u, err := url.Parse(w.URL)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("url must use http or https: %s", w.URL)
		}
	}

	if w.IntervalMs < 10 {
		return fmt.Errorf("interval_ms must be at least 10, got %d", w.IntervalMs)
	}
	if w.RequestTimeoutMs < 1 {
		return fmt.Errorf("request_timeout_ms must be positive, got %d", w.RequestTimeoutMs)
	}

	validFormats := map[string]bool{
		"txt": true, "json": true, "raw": true, "": true,
	}
	if !validFormats[w.Format] {
		return fmt.Errorf("invalid format: %s", w.Format)
	}

	for i := range w.Filters {
		if err := validateFilter(i, &w.Filters[i]); err != nil {
			return err
		}
	}
	return nil
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func validPort(port int64) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%d is outside 1-65535", port)
	}
	return nil
}

func validIP(host string) error {
	if net.ParseIP(host) == nil {
		return fmt.Errorf("%q is not an IP address", host)
	}
	return nil
}
