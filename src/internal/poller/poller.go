// FILE: src/internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quantumlog/src/internal/console"
	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
	"quantumlog/src/internal/metrics"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// Channel names used in logs and metrics
const (
	ChannelFragmented = "fragmented"
	ChannelInline     = "inline"
)

// Source exposes the two client-side channels.
// ReadFragmented must clear every fragment it returns.
type Source interface {
	ReadFragmented() string
	ReadInline() string
}

// Refresher is implemented by sources that must reload before each tick
type Refresher interface {
	Refresh(ctx context.Context) error
}

var errRefresh = errors.New("source refresh failed")

// EnvelopeFilter narrows an envelope before it is replayed
type EnvelopeFilter interface {
	Filter(env *core.Envelope) *core.Envelope
}

// Options configures a Poller
type Options struct {
	Interval  time.Duration
	Formatter format.Formatter
	Filter    EnvelopeFilter // optional
}

// Poller replays server envelopes onto a console whenever a channel value changes
type Poller struct {
	source     Source
	console    console.Console
	dispatcher *console.Dispatcher
	filter     EnvelopeFilter
	interval   time.Duration
	logger     *log.Logger

	mu             sync.Mutex // serializes ticks
	lastFragmented string
	lastInline     string

	notify      chan struct{}
	warnLimiter *rate.Limiter
}

// New creates a poller. A zero interval uses the protocol default.
func New(src Source, c console.Console, opts Options, logger *log.Logger) (*Poller, error) {
	if src == nil {
		return nil, fmt.Errorf("poller source cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("poller console cannot be nil")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = core.DefaultPollInterval * time.Millisecond
	}

	formatter := opts.Formatter
	if formatter == nil {
		f, err := format.NewTextFormatter(nil, logger)
		if err != nil {
			return nil, err
		}
		formatter = f
	}

	p := &Poller{
		source:   src,
		console:  c,
		filter:   opts.Filter,
		interval: interval,
		logger:   logger,
		notify:   make(chan struct{}, 1),
		// Fault warnings: burst of 3, then one every 12 seconds
		warnLimiter: rate.NewLimiter(rate.Every(12*time.Second), 3),
	}
	p.dispatcher = console.NewDispatcher(formatter, p.warn)
	return p, nil
}

// Interval returns the delay between ticks
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Tick reads both channels, fragmented first, and dispatches each value that
// changed since the previous tick. Decode failures skip that channel only.
func (p *Poller) Tick(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	dispatched := 0

	if r, ok := p.source.(Refresher); ok {
		// A failed refresh leaves the previous state readable
		if err := r.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", errRefresh, err))
		}
	}

	frag := p.source.ReadFragmented()
	if frag != p.lastFragmented {
		p.lastFragmented = frag
		if n, err := p.replay(ChannelFragmented, frag); err != nil {
			errs = append(errs, err)
		} else {
			dispatched += n
		}
	}

	inline := p.source.ReadInline()
	if inline != p.lastInline {
		p.lastInline = inline
		if n, err := p.replay(ChannelInline, inline); err != nil {
			errs = append(errs, err)
		} else {
			dispatched += n
		}
	}

	return dispatched, errors.Join(errs...)
}

// replay decodes and dispatches one channel value; empty values are a no-op
func (p *Poller) replay(channel, value string) (int, error) {
	env, err := format.Decode(value)
	if err != nil {
		metrics.PollDispatchTotal.WithLabelValues(channel, metrics.ResultError).Inc()
		p.logger.Warn("msg", "Discarding undecodable payload",
			"component", "poller",
			"channel", channel,
			"bytes", len(value),
			"error", err)
		return 0, fmt.Errorf("%s channel: %w", channel, err)
	}
	if env == nil {
		return 0, nil
	}
	if p.filter != nil {
		env = p.filter.Filter(env)
	}

	n := p.dispatcher.Dispatch(p.console, env)
	metrics.PollDispatchTotal.WithLabelValues(channel, metrics.ResultOK).Inc()
	p.logger.Debug("msg", "Envelope replayed",
		"component", "poller",
		"channel", channel,
		"rows", len(env.Rows),
		"calls", n)
	return n, nil
}

// Notify requests an immediate tick, e.g. on a cookie change notification.
// Requests made while one is pending are coalesced.
func (p *Poller) Notify() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Run ticks immediately and then after each interval until ctx is done.
// The delay is measured from the end of the previous tick, so a slow tick
// pushes the next one out.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("msg", "Poller started",
		"component", "poller",
		"interval", p.interval)

	for {
		p.safeTick(ctx)

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("msg", "Poller stopped", "component", "poller")
			return ctx.Err()
		case <-timer.C:
		case <-p.notify:
			timer.Stop()
		}
	}
}

// safeTick isolates faults so the loop always re-arms
func (p *Poller) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.warn(fmt.Sprintf("poll tick failed: %v", r))
		}
	}()

	// Decode failures were already logged by replay
	_, err := p.Tick(ctx)
	if err != nil && (errors.Is(err, errRefresh) || !errors.Is(err, core.ErrDecode)) {
		p.warn(err.Error())
	}
}

// warn is the degraded fault channel: operator log plus a plain Log line,
// both rate limited
func (p *Poller) warn(msg string) {
	if !p.warnLimiter.Allow() {
		return
	}
	p.logger.Warn("msg", "Console fault",
		"component", "poller",
		"detail", msg)

	defer func() { _ = recover() }()
	p.console.Log("quantumlog: " + msg)
}
