// FILE: src/cmd/quantumlog/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"quantumlog/src/internal/config"
)

// OutputHandler prints operator notices for serve and watch.
// Watch replays rows on stdout, so its notices go to stderr to keep the
// replay stream pipeable. Quiet mode silences every notice.
type OutputHandler struct {
	mu     sync.Mutex
	quiet  bool
	stdout io.Writer
	stderr io.Writer
}

var output = newOutputHandler(os.Stdout, os.Stderr)

func newOutputHandler(stdout, stderr io.Writer) *OutputHandler {
	return &OutputHandler{stdout: stdout, stderr: stderr}
}

// SetQuiet is called once flags are parsed
func (o *OutputHandler) SetQuiet(quiet bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quiet = quiet
}

func (o *OutputHandler) write(w io.Writer, format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// Serving announces the demo server address and transport
func (o *OutputHandler) Serving(cfg *config.Config) {
	o.write(o.stdout, "quantumlog serving http://%s:%d/ (transport %s, metrics %s)\n",
		cfg.Server.Host, cfg.Server.Port, cfg.Transport.Mode, cfg.Server.MetricsPath)
	if cfg.Server.HotReload {
		o.write(o.stdout, "  hot reload: transport changes in the config file apply live\n")
	}
}

// Watching announces the replay source
func (o *OutputHandler) Watching(target string, interval time.Duration, lineFormat string, filters int) {
	o.write(o.stderr, "quantumlog watching %s every %s (format %s", target, interval, lineFormat)
	if filters > 0 {
		o.write(o.stderr, ", %d filter(s)", filters)
	}
	o.write(o.stderr, ")\n")
}

// Stopped reports a clean exit of command
func (o *OutputHandler) Stopped(command string) {
	o.write(o.stderr, "quantumlog %s stopped\n", command)
}

// Warn reports a recoverable problem on stderr
func (o *OutputHandler) Warn(format string, args ...any) {
	o.write(o.stderr, "warning: "+format, args...)
}

// FatalError always reaches stderr, quiet or not
func FatalError(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}
