// FILE: src/internal/core/const.go
package core

// Wire protocol constants shared by the server transport and the client poller
const (
	ProtocolVersion = "1.0.11"
	HeaderName      = "X-ChromeLogger-Data"
	CookiePrefix    = "fortephplog"
	InlineToken     = "fortephplog"
)

// Transport defaults
const (
	DefaultHeaderLimit   = 5000
	DefaultFragmentSize  = 2000
	DefaultCookieTTLSecs = 3600
	DefaultPollInterval  = 2500 // ms
	DefaultMaxDepth      = 64
)

// Reserved key carrying the originating type name in flattened objects
const ClassNameKey = "___class_name"

// Envelope column names, in row order
var Columns = []string{"log", "backtrace", "type"}
