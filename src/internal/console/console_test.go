// FILE: src/internal/console/console_test.go
package console

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures calls by method name
type recorder struct {
	calls []string
}

func (r *recorder) Log(args ...any)   { r.add("log", args) }
func (r *recorder) Info(args ...any)  { r.add("info", args) }
func (r *recorder) Warn(args ...any)  { r.add("warn", args) }
func (r *recorder) Error(args ...any) { r.add("error", args) }

func (r *recorder) Group(args ...any)          { r.add("group", args) }
func (r *recorder) GroupCollapsed(args ...any) { r.add("groupCollapsed", args) }
func (r *recorder) GroupEnd()                  { r.add("groupEnd", nil) }
func (r *recorder) Table(data any)             { r.add("table", []any{data}) }

func (r *recorder) add(method string, args []any) {
	r.calls = append(r.calls, strings.TrimSpace(method+" "+fmt.Sprint(args...)))
}

// logOnly has no optional methods
type logOnly struct {
	lines []string
}

func (l *logOnly) Log(args ...any) { l.lines = append(l.lines, fmt.Sprint(args...)) }

// faulty panics on warn
type faulty struct {
	logOnly
}

func (f *faulty) Warn(args ...any) { panic("warn unavailable") }

func dispatch(t *testing.T, c Console, env *core.Envelope, fallback Fallback) int {
	t.Helper()
	f, err := format.NewTextFormatter(nil, log.NewLogger())
	require.NoError(t, err)
	return NewDispatcher(f, fallback).Dispatch(c, env)
}

func envelope(rows ...core.Row) *core.Envelope {
	env := core.NewEnvelope()
	env.Rows = append(env.Rows, rows...)
	return env
}

func TestDispatchMethods(t *testing.T) {
	env := envelope(
		core.Row{Payload: []any{"hello", 42.0}, Location: core.Loc("a.go:1"), Kind: core.KindInfo},
		core.Row{Payload: []any{"beware"}, Location: core.Loc("a.go:2"), Kind: core.KindWarn},
		core.Row{Payload: []any{"grp"}, Kind: core.KindGroup},
		core.Row{Payload: []any{"plain"}, Kind: core.KindLog},
		core.Row{Payload: []any{}, Kind: core.KindGroupEnd},
		core.Row{Payload: []any{[]any{map[string]any{"Level": "info"}}}, Kind: core.KindTable},
		core.Row{Payload: []any{"bad"}, Location: core.Loc("a.go:3"), Kind: core.KindError},
	)

	rec := &recorder{}
	n := dispatch(t, rec, env, nil)
	assert.Equal(t, 8, n)
	assert.Equal(t, []string{
		"info hello [a.go:1]",
		"info 42 [a.go:1]",
		"warn beware [a.go:2]",
		"group grp",
		"log plain",
		"groupEnd",
		"table [map[Level:info]]",
		"error bad [a.go:3]",
	}, rec.calls)
}

func TestDispatchFallsBackToLog(t *testing.T) {
	env := envelope(
		core.Row{Payload: []any{"hello"}, Location: core.Loc("a.go:1"), Kind: core.KindInfo},
		core.Row{Payload: []any{"x"}, Kind: core.RowKind("trace")},
		core.Row{Payload: []any{[]any{"r"}}, Kind: core.KindTable},
		core.Row{Payload: []any{"g"}, Kind: core.KindGroup},
		core.Row{Kind: core.KindGroupEnd},
	)

	c := &logOnly{}
	dispatch(t, c, env, nil)
	assert.Equal(t, []string{"hello [a.go:1]", "x", `["r"]`, "g"}, c.lines, "group labels degrade to log lines")
}

func TestDispatchFaultBoundary(t *testing.T) {
	env := envelope(
		core.Row{Payload: []any{"first"}, Kind: core.KindWarn},
		core.Row{Payload: []any{"second"}, Kind: core.KindLog},
	)

	var warnings []string
	c := &faulty{}
	n := dispatch(t, c, env, func(msg string) { warnings = append(warnings, msg) })

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"second"}, c.lines, "later rows still replay")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "warn unavailable")
}

func TestDispatchNil(t *testing.T) {
	assert.Zero(t, dispatch(t, &recorder{}, nil, nil))
	assert.Zero(t, dispatch(t, nil, core.NewEnvelope(), nil))
}

func TestTerminalLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Info("hello")
	term.Group("outer")
	term.Warn("inside")
	term.GroupEnd()
	term.GroupEnd()
	term.Error("after")

	assert.Equal(t, "INFO hello\n▼ outer\n  WARN inside\nERROR after\n", buf.String())
}

func TestTerminalTable(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Table([]any{
		map[string]any{"Comment": "boot", "Level": "info", "Line": 12.0},
		map[string]any{"Comment": "slow query", "Level": "warning", "Extra": "x"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "(index)  Level    Comment     Line  Extra", lines[0])
	assert.Equal(t, "0        info     boot        12", lines[1])
	assert.Equal(t, "1        warning  slow query        x", lines[2])
}

func TestTerminalTableScalar(t *testing.T) {
	var buf bytes.Buffer
	NewTerminal(&buf).Table("not a table")
	assert.Equal(t, "not a table\n", buf.String())
}
