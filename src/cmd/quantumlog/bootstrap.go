// FILE: src/cmd/quantumlog/bootstrap.go
package main

import (
	"fmt"
	"strings"
	"time"

	"quantumlog/src/internal/config"

	"github.com/lixenwraith/log"
)

// initializeLogger sets up the operator logger. The file sink is never
// used; records go to the console stream or nowhere.
func initializeLogger(cfg *config.LogConfig, quiet bool) error {
	logger = log.NewLogger()

	var configArgs []string

	if quiet {
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	if cfg.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			output.Warn("logger shutdown: %v\n", err)
		}
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
