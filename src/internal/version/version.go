// FILE: src/internal/version/version.go
package version

import (
	"fmt"

	"quantumlog/src/internal/core"
)

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Returns a formatted version string
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, protocol: %s)", Version, GitCommit, BuildTime, core.ProtocolVersion)
}

// Returns just the version tag
func Short() string {
	return Version
}

// Returns the User-Agent sent by the page watcher
func UserAgent() string {
	return "quantumlog/" + Version
}
