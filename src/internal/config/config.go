// FILE: src/internal/config/config.go
package config

// Config is the root of quantumlog.toml
type Config struct {
	Transport TransportConfig `toml:"transport"`
	Server    ServerConfig    `toml:"server"`
	Watch     WatchConfig     `toml:"watch"`
	Logging   *LogConfig      `toml:"logging"`
}

// TransportConfig controls how flushed envelopes reach the client
type TransportConfig struct {
	// "inline", "cookie", "header" or "both" (cookie and header)
	Mode string `toml:"mode"`

	HeaderName  string `toml:"header_name"`
	HeaderLimit int64  `toml:"header_limit"` // bytes, also bounds the cookie payload

	FragmentSize     int64  `toml:"fragment_size"`
	CookiePrefix     string `toml:"cookie_prefix"`
	CookieTTLSeconds int64  `toml:"cookie_ttl_seconds"`

	// Buffer settings applied to every request
	BacktraceLevel int64 `toml:"backtrace_level"`
	MaxDepth       int64 `toml:"max_depth"`
}

// ServerConfig is the demo server
type ServerConfig struct {
	Host        string          `toml:"host"`
	Port        int64           `toml:"port"`
	MetricsPath string          `toml:"metrics_path"`
	HotReload   bool            `toml:"hot_reload"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int64   `toml:"burst_size"`
}

// WatchConfig is the client poller
type WatchConfig struct {
	// Page to poll; File replays a saved page instead
	URL  string `toml:"url"`
	File string `toml:"file"`

	IntervalMs       int64 `toml:"interval_ms"`
	RequestTimeoutMs int64 `toml:"request_timeout_ms"`

	// Line rendering: "txt", "json" or "raw"
	Format   string `toml:"format"`
	Template string `toml:"template"`

	// Applied in order; a row must pass every filter
	Filters []FilterConfig `toml:"filters"`
}
