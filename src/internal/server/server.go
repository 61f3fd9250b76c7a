// FILE: src/internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sync/atomic"
	"time"

	"quantumlog/src/internal/buffer"
	"quantumlog/src/internal/config"
	"quantumlog/src/internal/core"
	"quantumlog/src/internal/metrics"
	"quantumlog/src/internal/middleware"
	"quantumlog/src/internal/transport"
	"quantumlog/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/valyala/fasthttp"
)

const (
	pagePath   = "/"
	statusPath = "/status"
)

// Server is the demo application: every page request logs through a
// request buffer that is transmitted with the response.
type Server struct {
	config *config.ServerConfig
	logger *log.Logger

	transmitter atomic.Pointer[transport.Transmitter]
	page        atomic.Pointer[fasthttp.RequestHandler] // buffer middleware bound to the current transport
	rateLimiter *middleware.RateLimiter

	server  *fasthttp.Server
	handler fasthttp.RequestHandler

	// Statistics
	startTime     time.Time
	totalRequests atomic.Uint64
	reloads       atomic.Uint64
}

// NewTransmitter maps a transport section onto a Transmitter
func NewTransmitter(cfg config.TransportConfig, logger *log.Logger) (*transport.Transmitter, error) {
	if err := config.ValidateTransport(&cfg); err != nil {
		return nil, err
	}
	mode, err := transport.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return transport.NewTransmitter(transport.Options{
		Mode:         mode,
		HeaderName:   cfg.HeaderName,
		HeaderLimit:  int(cfg.HeaderLimit),
		FragmentSize: int(cfg.FragmentSize),
		CookiePrefix: cfg.CookiePrefix,
		CookieTTL:    time.Duration(cfg.CookieTTLSeconds) * time.Second,
	}, logger), nil
}

func bufferSettings(cfg config.TransportConfig) map[string]any {
	return map[string]any{
		buffer.SettingBacktraceLevel: int(cfg.BacktraceLevel),
		buffer.SettingMaxDepth:       int(cfg.MaxDepth),
	}
}

// New creates the demo server
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}

	s := &Server{
		config:    &cfg.Server,
		logger:    logger,
		startTime: time.Now(),
	}
	if err := s.UpdateTransport(cfg.Transport); err != nil {
		return nil, fmt.Errorf("transport config: %w", err)
	}

	metricsHandler := metrics.Handler()
	s.handler = func(ctx *fasthttp.RequestCtx) {
		s.totalRequests.Add(1)
		switch string(ctx.Path()) {
		case s.config.MetricsPath:
			metricsHandler(ctx)
		case statusPath:
			s.handleStatus(ctx)
		default:
			(*s.page.Load())(ctx)
		}
	}

	if cfg.Server.RateLimit.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerSecond,
			int(cfg.Server.RateLimit.BurstSize),
			time.Minute,
			logger)
		s.handler = s.rateLimiter.Middleware(s.handler)
	}

	return s, nil
}

// Handler returns the routed request handler
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.handler
}

// UpdateTransport swaps the transmitter and request settings.
// In-flight requests finish with the previous values.
func (s *Server) UpdateTransport(cfg config.TransportConfig) error {
	tr, err := NewTransmitter(cfg, s.logger)
	if err != nil {
		return err
	}
	page := middleware.FastHTTP(s.handlePage, middleware.Options{
		Transmitter: tr,
		Settings:    bufferSettings(cfg),
	}, s.logger)

	s.transmitter.Store(tr)
	s.page.Store(&page)
	return nil
}

// Reload applies a changed transport section and counts it
func (s *Server) Reload(cfg config.TransportConfig) error {
	if err := s.UpdateTransport(cfg); err != nil {
		return err
	}
	s.reloads.Add(1)
	return nil
}

// Start listens in the background and shuts down when ctx is done
func (s *Server) Start(ctx context.Context) error {
	fasthttpLogger := compat.NewFastHTTPAdapter(s.logger)

	s.server = &fasthttp.Server{
		Name:             fmt.Sprintf("quantumlog/%s", version.Short()),
		Handler:          s.handler,
		DisableKeepalive: false,
		Logger:           fasthttpLogger,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Run server in separate goroutine to avoid blocking
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("msg", "Demo server started",
			"component", "demo_server",
			"host", s.config.Host,
			"port", s.config.Port,
			"metrics_path", s.config.MetricsPath,
			"mode", s.transmitter.Load().Mode)

		if err := s.server.ListenAndServe(addr); err != nil {
			errChan <- err
		}
	}()

	// Monitor context for shutdown signal
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	// Check if server started successfully
	select {
	case err := <-errChan:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown stops the listener and the rate limiter
func (s *Server) Shutdown() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.server == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.ShutdownWithContext(shutdownCtx); err != nil {
		s.logger.Warn("msg", "Demo server shutdown incomplete",
			"component", "demo_server",
			"error", err)
	}
}

// handlePage produces a representative mix of console rows and debug entries
func (s *Server) handlePage(ctx *fasthttp.RequestCtx) {
	b := middleware.FromFastHTTP(ctx)
	path := string(ctx.Path())

	_ = b.Info("request received", path)
	_ = b.Group("request")
	_ = b.Log(map[string]any{
		"method":     string(ctx.Method()),
		"user_agent": string(ctx.UserAgent()),
		"request_id": middleware.RequestID(ctx),
	})
	_ = b.GroupEnd()

	args := map[string]string{}
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		args[string(k)] = string(v)
	})
	if len(args) > 0 {
		_ = b.Table(args)
	}

	started := time.Now()
	_ = b.Add("page rendered", core.StatusInfo)
	if _, slow := args["slow"]; slow {
		_ = b.Warn("slow path requested")
		_ = b.Add("render exceeded budget", core.StatusWarning)
	}
	if _, fail := args["fail"]; fail {
		err := fmt.Errorf("render widget: %w", errors.New("template missing"))
		_ = b.Error(err)
		_ = b.Add("widget failed", core.StatusError, buffer.WithError(err))
	}
	_ = b.Add(fmt.Sprintf("elapsed %s", time.Since(started)), core.StatusStatus)

	ctx.SetContentType("text/html; charset=utf-8")
	fmt.Fprintf(ctx, "<!DOCTYPE html><html><head><title>quantumlog</title></head><body><p>%s</p></body></html>",
		html.EscapeString(path))
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")

	var rateLimitStats any
	if s.rateLimiter != nil {
		rateLimitStats = s.rateLimiter.Stats()
	} else {
		rateLimitStats = map[string]any{
			"enabled": false,
		}
	}

	tr := s.transmitter.Load()
	status := map[string]any{
		"service":        "quantumlog",
		"version":        version.Short(),
		"protocol":       core.ProtocolVersion,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"total_requests": s.totalRequests.Load(),
		"reloads":        s.reloads.Load(),
		"transport": map[string]any{
			"mode":          tr.Mode,
			"header_name":   tr.HeaderName,
			"header_limit":  tr.HeaderLimit,
			"fragment_size": tr.FragmentSize,
			"cookie_prefix": tr.CookiePrefix,
		},
		"rate_limit": rateLimitStats,
	}

	if err := json.NewEncoder(ctx).Encode(status); err != nil {
		s.logger.Error("msg", "Failed to encode status",
			"component", "demo_server",
			"error", err)
	}
}
