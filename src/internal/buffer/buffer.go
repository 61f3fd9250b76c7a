// FILE: src/internal/buffer/buffer.go
package buffer

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/flatten"

	"github.com/lixenwraith/log"
)

// Setting keys understood by the buffer
const (
	SettingBacktraceLevel = "backtrace_level"
	SettingMaxDepth       = "max_depth"
)

// Options configures a new Buffer
type Options struct {
	Host       string
	RequestURI string
	Settings   map[string]any
}

// Buffer accumulates console rows and debug entries for one unit of work.
// A Buffer belongs to exactly one request and is not safe for concurrent use.
type Buffer struct {
	logger     *log.Logger
	start      time.Time
	host       string
	requestURI string
	settings   map[string]any

	rows    []core.Row
	entries []core.Entry
	seen    map[string]struct{} // locations already emitted since the last drain
}

// New creates a buffer whose entry clock starts now
func New(logger *log.Logger, opts Options) *Buffer {
	b := &Buffer{
		logger:     logger,
		start:      time.Now(),
		host:       opts.Host,
		requestURI: opts.RequestURI,
		settings: map[string]any{
			SettingBacktraceLevel: 1,
			SettingMaxDepth:       core.DefaultMaxDepth,
		},
		seen: make(map[string]struct{}),
	}
	b.AddSettings(opts.Settings)
	return b
}

// AddSetting stores a setting
func (b *Buffer) AddSetting(key string, value any) {
	b.settings[key] = value
}

// AddSettings stores several settings at once
func (b *Buffer) AddSettings(settings map[string]any) {
	for k, v := range settings {
		b.AddSetting(k, v)
	}
}

// Setting returns a setting or nil
func (b *Buffer) Setting(key string) any {
	return b.settings[key]
}

// Log appends a plain console row
func (b *Buffer) Log(values ...any) error {
	return b.record(core.KindLog, values)
}

// Info appends an info row
func (b *Buffer) Info(values ...any) error {
	return b.record(core.KindInfo, values)
}

// Warn appends a warning row
func (b *Buffer) Warn(values ...any) error {
	return b.record(core.KindWarn, values)
}

// Error appends an error row
func (b *Buffer) Error(values ...any) error {
	return b.record(core.KindError, values)
}

// Group opens a console group
func (b *Buffer) Group(values ...any) error {
	return b.record(core.KindGroup, values)
}

// GroupCollapsed opens a collapsed console group
func (b *Buffer) GroupCollapsed(values ...any) error {
	return b.record(core.KindGroupCollapsed, values)
}

// GroupEnd closes the innermost console group
func (b *Buffer) GroupEnd(values ...any) error {
	return b.record(core.KindGroupEnd, values)
}

// Table appends a table row; the first value is rendered as the table
func (b *Buffer) Table(values ...any) error {
	return b.record(core.KindTable, values)
}

// record appends a row located at the producer's call site
func (b *Buffer) record(kind core.RowKind, values []any) error {
	// record -> exported method -> producer
	return b.Append(kind, values, b.callerLocation(2))
}

// Append validates kind, flattens values and appends one row.
// Empty payloads are dropped except for group ends.
func (b *Buffer) Append(kind core.RowKind, values []any, location string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidKind, string(kind))
	}
	if len(values) == 0 && kind != core.KindGroupEnd {
		return nil
	}

	payload, err := b.flattener().FlattenAll(values)
	if err != nil {
		b.logger.Debug("msg", "Log value truncated",
			"component", "buffer",
			"kind", kind.String(),
			"error", err)
	}

	b.rows = append(b.rows, core.Row{
		Payload:  payload,
		Location: b.dedup(kind, location),
		Kind:     kind,
	})
	return nil
}

// Prepend inserts a finalized row at the front
func (b *Buffer) Prepend(row core.Row) {
	b.rows = append([]core.Row{row}, b.rows...)
}

// Len returns the number of pending rows
func (b *Buffer) Len() int {
	return len(b.rows)
}

// Entries returns a copy of the pending debug entries
func (b *Buffer) Entries() []core.Entry {
	out := make([]core.Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Drain snapshots the pending rows into an envelope and resets the buffer
func (b *Buffer) Drain() *core.Envelope {
	env := core.NewEnvelope()
	env.RequestURI = b.requestURI
	if len(b.rows) > 0 {
		env.Rows = b.rows
	}

	b.rows = nil
	b.entries = nil
	b.seen = make(map[string]struct{})
	return env
}

// dedup nulls locations already emitted by this buffer, and group locations
func (b *Buffer) dedup(kind core.RowKind, location string) *string {
	if kind.IsGroup() {
		return nil
	}
	if _, dup := b.seen[location]; dup {
		return nil
	}
	b.seen[location] = struct{}{}
	return core.Loc(location)
}

func (b *Buffer) flattener() *flatten.Flattener {
	return flatten.New(intSetting(b.Setting(SettingMaxDepth), core.DefaultMaxDepth))
}

// callerLocation returns "file:line" for the frame skip levels above its caller,
// shifted by the backtrace_level setting
func (b *Buffer) callerLocation(skip int) string {
	level := intSetting(b.Setting(SettingBacktraceLevel), 1)
	if level < 1 {
		level = 1
	}
	_, file, line, ok := runtime.Caller(skip + level)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}

func intSetting(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return fallback
}
