// FILE: src/cmd/quantumlog/watch.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/console"
	"quantumlog/src/internal/filter"
	"quantumlog/src/internal/format"
	"quantumlog/src/internal/poller"
	"quantumlog/src/internal/source"
)

type watchCommand struct{}

func (c *watchCommand) Description() string {
	return "Replay a page's log on this terminal"
}

func (c *watchCommand) Help() string {
	return watchHelp
}

func (c *watchCommand) Execute(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	url := fs.String("url", "", "Page to poll")
	file := fs.String("file", "", "Saved page to replay")
	lineFormat := fs.String("format", "", "Line format: txt, json, raw")
	interval := fs.Int("interval", 0, "Delay between polls in milliseconds")

	cfg, err := parseCommand(fs, &common, args, func(cfg *config.Config) {
		if *url != "" {
			cfg.Watch.URL = *url
		}
		if *file != "" {
			cfg.Watch.File = *file
		}
		if *lineFormat != "" {
			cfg.Watch.Format = *lineFormat
		}
		if *interval != 0 {
			cfg.Watch.IntervalMs = int64(*interval)
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

	src, target, err := newWatchSource(&cfg.Watch, cfg.Transport.CookiePrefix)
	if err != nil {
		return err
	}

	formatter, err := format.New(cfg.Watch.Format, map[string]any{
		"template": cfg.Watch.Template,
	}, logger)
	if err != nil {
		return err
	}

	opts := poller.Options{
		Interval:  time.Duration(cfg.Watch.IntervalMs) * time.Millisecond,
		Formatter: formatter,
	}
	if len(cfg.Watch.Filters) > 0 {
		chain, err := filter.NewChain(cfg.Watch.Filters, logger)
		if err != nil {
			return err
		}
		opts.Filter = chain
	}

	p, err := poller.New(src, console.NewTerminal(os.Stdout), opts, logger)
	if err != nil {
		return err
	}

	ctx, cancel := watchSignals(context.Background(), p.Notify)
	defer cancel()

	logger.Info("msg", "Watching for log payloads",
		"source", target,
		"interval_ms", cfg.Watch.IntervalMs,
		"format", formatter.Name())
	output.Watching(target, opts.Interval, formatter.Name(), len(cfg.Watch.Filters))

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	output.Stopped("watch")
	return nil
}

// newWatchSource picks the saved-page replay when a file is set
func newWatchSource(cfg *config.WatchConfig, cookiePrefix string) (poller.Source, string, error) {
	if cfg.File != "" {
		src, err := source.NewFileSource(cfg.File, logger)
		return src, cfg.File, err
	}
	src, err := source.NewPageSource(source.PageOptions{
		URL:          cfg.URL,
		Timeout:      time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		CookiePrefix: cookiePrefix,
	}, logger)
	return src, cfg.URL, err
}
