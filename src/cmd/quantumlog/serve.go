// FILE: src/cmd/quantumlog/serve.go
package main

import (
	"context"
	"flag"
	"fmt"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/server"
	"quantumlog/src/internal/version"
)

type serveCommand struct{}

func (c *serveCommand) Description() string {
	return "Run the demo server"
}

func (c *serveCommand) Help() string {
	return serveHelp
}

func (c *serveCommand) Execute(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	mode := fs.String("mode", "", "Transport mode: inline, cookie, header, both")
	port := fs.Int("port", 0, "Listen port")
	hotReload := fs.Bool("hot-reload", false, "Apply transport changes from the config file live")

	cfg, err := parseCommand(fs, &common, args, func(cfg *config.Config) {
		if *mode != "" {
			cfg.Transport.Mode = *mode
		}
		if *port != 0 {
			cfg.Server.Port = int64(*port)
		}
		if *hotReload {
			cfg.Server.HotReload = true
		}
	})
	if err != nil {
		return err
	}

	output.SetQuiet(common.Quiet)
	if err := initializeLogger(cfg.Logging, common.Quiet); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "quantumlog starting",
		"version", version.String(),
		"config_file", common.configPath(),
		"mode", cfg.Transport.Mode)

	ctx, cancel := watchSignals(context.Background(), nil)
	defer cancel()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer srv.Shutdown()

	if cfg.Server.HotReload {
		reloader := server.NewReloader(common.configPath(), srv, logger)
		if err := reloader.Start(ctx, cfg); err != nil {
			logger.Error("msg", "Hot reload unavailable",
				"error", err,
				"action", "continuing with static configuration")
			output.Warn("hot reload unavailable: %v\n", err)
			cfg.Server.HotReload = false
		} else {
			defer reloader.Shutdown()
		}
	}

	output.Serving(cfg)

	<-ctx.Done()
	logger.Info("msg", "Shutdown complete")
	output.Stopped("serve")
	return nil
}
