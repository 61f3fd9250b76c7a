// FILE: src/cmd/quantumlog/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// watchSignals returns a context cancelled on SIGINT or SIGTERM.
// SIGHUP calls onHangup when set and is otherwise ignored.
func watchSignals(parent context.Context, onHangup func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigChan:
				if sig == syscall.SIGHUP {
					if onHangup != nil {
						logger.Info("msg", "SIGHUP received", "component", "signal")
						onHangup()
					}
					continue
				}
				logger.Info("msg", "Shutdown signal received",
					"component", "signal",
					"signal", sig.String())
				cancel()
				return
			}
		}
	}()

	return ctx, cancel
}
