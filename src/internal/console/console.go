// FILE: src/internal/console/console.go
package console

import (
	"fmt"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
)

// Console is the minimal capability every replay target provides
type Console interface {
	Log(args ...any)
}

// Leveled methods are optional; a Console lacking one receives Log instead
type (
	Infoer interface {
		Info(args ...any)
	}
	Warner interface {
		Warn(args ...any)
	}
	Errorer interface {
		Error(args ...any)
	}
	Grouper interface {
		Group(args ...any)
		GroupCollapsed(args ...any)
		GroupEnd()
	}
	Tabler interface {
		Table(data any)
	}
)

// Fallback receives a best-effort warning when a console call faults
type Fallback func(msg string)

// Dispatcher replays envelopes onto a Console
type Dispatcher struct {
	formatter format.Formatter
	fallback  Fallback
}

// NewDispatcher renders lines with f.
// A nil fallback discards fault warnings.
func NewDispatcher(f format.Formatter, fallback Fallback) *Dispatcher {
	if fallback == nil {
		fallback = func(string) {}
	}
	return &Dispatcher{formatter: f, fallback: fallback}
}

// Dispatch replays every row of env in order and returns the number of
// console calls that completed. Each call runs in its own fault boundary.
func (d *Dispatcher) Dispatch(c Console, env *core.Envelope) int {
	if c == nil || env == nil {
		return 0
	}

	calls := 0
	for _, row := range env.Rows {
		for _, call := range d.calls(c, row) {
			if d.guard(row.Kind, call) {
				calls++
			}
		}
	}
	return calls
}

// calls expands one row into console invocations
func (d *Dispatcher) calls(c Console, row core.Row) []func() {
	switch row.Kind {
	case core.KindTable:
		if len(row.Payload) == 0 {
			return nil
		}
		data := row.Payload[0]
		if t, ok := c.(Tabler); ok {
			return []func(){func() { t.Table(data) }}
		}
		return []func(){func() { c.Log(d.render(row.Kind, data, row.Location)) }}

	case core.KindGroupEnd:
		if g, ok := c.(Grouper); ok {
			return []func(){g.GroupEnd}
		}
		return nil

	case core.KindGroup, core.KindGroupCollapsed:
		g, ok := c.(Grouper)
		if !ok {
			break
		}
		open := g.Group
		if row.Kind == core.KindGroupCollapsed {
			open = g.GroupCollapsed
		}
		if len(row.Payload) == 0 {
			return []func(){func() { open() }}
		}
		out := make([]func(), 0, len(row.Payload))
		for _, v := range row.Payload {
			line := d.render(row.Kind, v, row.Location)
			out = append(out, func() { open(line) })
		}
		return out
	}

	method := d.method(c, row.Kind)
	out := make([]func(), 0, len(row.Payload))
	for _, v := range row.Payload {
		line := d.render(row.Kind, v, row.Location)
		out = append(out, func() { method(line) })
	}
	return out
}

func (d *Dispatcher) method(c Console, kind core.RowKind) func(args ...any) {
	switch kind {
	case core.KindInfo:
		if m, ok := c.(Infoer); ok {
			return m.Info
		}
	case core.KindWarn:
		if m, ok := c.(Warner); ok {
			return m.Warn
		}
	case core.KindError:
		if m, ok := c.(Errorer); ok {
			return m.Error
		}
	}
	return c.Log
}

func (d *Dispatcher) render(kind core.RowKind, v any, loc *string) string {
	line := format.Line{Kind: kind, Value: v}
	if loc != nil {
		line.Location = *loc
	}
	out, err := d.formatter.Format(line)
	if err != nil {
		return format.Stringify(v)
	}
	return out
}

func (d *Dispatcher) guard(kind core.RowKind, call func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.fallback(fmt.Sprintf("console %s call failed: %v", kind, r))
			ok = false
		}
	}()
	call()
	return true
}
