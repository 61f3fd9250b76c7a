// FILE: src/cmd/quantumlog/flags.go
package main

import (
	"flag"
	"fmt"
	"strings"

	"quantumlog/src/internal/config"
)

// commonFlags are accepted by every long-running command
type commonFlags struct {
	ConfigFile string
	LogLevel   string
	LogOutput  string
	Quiet      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", "", "Config file path")
	fs.StringVar(&c.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&c.LogOutput, "log-output", "", "Log output: stdout, stderr, none (overrides config)")
	fs.BoolVar(&c.Quiet, "quiet", false, "Suppress operator logging")
}

func (c *commonFlags) validate() error {
	if c.LogOutput != "" {
		validOutputs := map[string]bool{"stdout": true, "stderr": true, "none": true}
		if !validOutputs[c.LogOutput] {
			return fmt.Errorf("invalid log-output: %s (valid: stdout, stderr, none)", c.LogOutput)
		}
	}
	if c.LogLevel != "" {
		if _, err := parseLogLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log-level: %s (valid: debug, info, warn, error)", c.LogLevel)
		}
	}
	return nil
}

// configPath is the file the command reads, also watched on hot reload
func (c *commonFlags) configPath() string {
	if c.ConfigFile != "" {
		return c.ConfigFile
	}
	return config.GetConfigPath()
}

// splitArgs separates --section.key=value overrides, which go to the
// config loader, from the command's own flags
func splitArgs(args []string) (flags, overrides []string) {
	for _, arg := range args {
		if isOverride(arg) {
			overrides = append(overrides, arg)
			continue
		}
		flags = append(flags, arg)
	}
	return flags, overrides
}

func isOverride(arg string) bool {
	if !strings.HasPrefix(arg, "--") {
		return false
	}
	key, _, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
	return strings.Contains(key, ".")
}

// parseCommand parses args into fs and loads the configuration.
// apply runs after loading so flag values win over every other source.
func parseCommand(fs *flag.FlagSet, common *commonFlags, args []string, apply func(*config.Config)) (*config.Config, error) {
	flagArgs, overrides := splitArgs(args)
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if err := common.validate(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(common.configPath(), overrides)
	if err != nil {
		return nil, err
	}

	if common.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(common.LogLevel)
	}
	if common.LogOutput != "" {
		cfg.Logging.Output = common.LogOutput
	}
	if apply != nil {
		apply(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
