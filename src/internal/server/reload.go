// FILE: src/internal/server/reload.go
package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quantumlog/src/internal/config"

	lconfig "github.com/lixenwraith/config"
	"github.com/lixenwraith/log"
)

// Reloader watches the config file and applies transport changes to a
// running server without a restart
type Reloader struct {
	configPath string
	server     *Server
	lcfg       *lconfig.Config
	logger     *log.Logger

	reloadingMu sync.Mutex
	isReloading bool
	shutdownCh  chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewReloader creates a reloader for srv backed by the file at configPath
func NewReloader(configPath string, srv *Server, logger *log.Logger) *Reloader {
	return &Reloader{
		configPath: configPath,
		server:     srv,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start begins watching. initial seeds the watched target so that
// unchanged sections keep their loaded values.
func (r *Reloader) Start(ctx context.Context, initial *config.Config) error {
	target := *initial
	lcfg, err := config.NewWatcher(r.configPath, &target)
	if err != nil {
		return err
	}
	r.lcfg = lcfg

	lcfg.AutoUpdateWithOptions(lconfig.WatchOptions{
		PollInterval:      time.Second,
		Debounce:          500 * time.Millisecond,
		ReloadTimeout:     30 * time.Second,
		VerifyPermissions: true,
	})

	r.wg.Add(1)
	go r.watchLoop(ctx)

	r.logger.Info("msg", "Configuration hot reload enabled",
		"component", "reloader",
		"config_file", r.configPath)
	return nil
}

func (r *Reloader) watchLoop(ctx context.Context) {
	defer r.wg.Done()

	changeCh := r.lcfg.Watch()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdownCh:
			return
		case changedPath, ok := <-changeCh:
			if !ok {
				return
			}
			switch changedPath {
			case "file_deleted":
				r.logger.Error("msg", "Configuration file deleted",
					"component", "reloader",
					"action", "keeping current configuration")
				continue
			case "permissions_changed":
				r.logger.Error("msg", "Configuration file permissions changed",
					"component", "reloader",
					"action", "reload blocked")
				continue
			case "reload_timeout":
				r.logger.Error("msg", "Configuration reload timed out",
					"component", "reloader",
					"action", "keeping current configuration")
				continue
			default:
				if strings.HasPrefix(changedPath, "reload_error:") {
					r.logger.Error("msg", "Configuration reload error",
						"component", "reloader",
						"error", strings.TrimPrefix(changedPath, "reload_error:"),
						"action", "keeping current configuration")
					continue
				}
			}

			if shouldReload(changedPath) {
				r.triggerReload()
			} else {
				r.logger.Info("msg", "Configuration change requires restart",
					"component", "reloader",
					"path", changedPath)
			}
		}
	}
}

// shouldReload reports whether a changed key can be applied live.
// Only the transport section is swapped in place.
func shouldReload(path string) bool {
	return path == "transport" || strings.HasPrefix(path, "transport.")
}

func (r *Reloader) triggerReload() {
	r.reloadingMu.Lock()
	if r.isReloading {
		r.reloadingMu.Unlock()
		r.logger.Debug("msg", "Reload already in progress, skipping",
			"component", "reloader")
		return
	}
	r.isReloading = true
	r.reloadingMu.Unlock()

	defer func() {
		r.reloadingMu.Lock()
		r.isReloading = false
		r.reloadingMu.Unlock()
	}()

	if err := r.performReload(); err != nil {
		r.logger.Error("msg", "Hot reload failed",
			"component", "reloader",
			"error", err,
			"action", "keeping current configuration")
		return
	}

	r.logger.Info("msg", "Transport configuration reloaded",
		"component", "reloader",
		"mode", r.server.transmitter.Load().Mode)
}

func (r *Reloader) performReload() error {
	updated, err := r.lcfg.AsStruct()
	if err != nil {
		return fmt.Errorf("failed to get updated config: %w", err)
	}
	newCfg, ok := updated.(*config.Config)
	if !ok {
		return fmt.Errorf("unexpected config type %T", updated)
	}
	return r.server.Reload(newCfg.Transport)
}

// Shutdown stops watching the config file
func (r *Reloader) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.shutdownCh)
		r.wg.Wait()
		if r.lcfg != nil {
			r.lcfg.StopAutoUpdate()
		}
	})
}
