// FILE: src/internal/buffer/entry.go
package buffer

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"quantumlog/src/internal/core"
)

// EntryOption overrides a detected field of a debug entry
type EntryOption func(*core.Entry)

// WithError attaches err as the entry exception
func WithError(err error) EntryOption {
	return func(e *core.Entry) {
		if err == nil {
			return
		}
		e.Exception = &core.Exception{
			Message: err.Error(),
			File:    e.File,
			Line:    e.Line,
			Trace:   unwrapChain(err),
		}
	}
}

// WithTime overrides the elapsed time in seconds
func WithTime(seconds float64) EntryOption {
	return func(e *core.Entry) { e.Time = seconds }
}

// WithFile overrides the source file
func WithFile(file string) EntryOption {
	return func(e *core.Entry) { e.File = file }
}

// WithLine overrides the source line
func WithLine(line int) EntryOption {
	return func(e *core.Entry) { e.Line = line }
}

// WithFunction overrides the calling function name
func WithFunction(name string) EntryOption {
	return func(e *core.Entry) { e.Function = name }
}

// Add records a debug entry that is shipped as a table at flush.
// Unknown levels are rejected with core.ErrInvalidLevel.
func (b *Buffer) Add(comment string, level core.Status, opts ...EntryOption) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidLevel, string(level))
	}

	entry := core.Entry{
		Time:    time.Since(b.start).Seconds(),
		Level:   level,
		Comment: comment,
	}

	// Frame 1 is the producer's call site
	if _, file, line, ok := runtime.Caller(1); ok {
		entry.File = file
		entry.Line = line
	}
	entry.Function = callingFunction(1)

	for _, opt := range opts {
		opt(&entry)
	}

	b.entries = append(b.entries, entry)
	return nil
}

// callingFunction returns "pkg.(*T).Method()" for the function skip frames above its caller
func callingFunction(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name + "()"
}

func unwrapChain(err error) []string {
	var trace []string
	for cur := errors.Unwrap(err); cur != nil; cur = errors.Unwrap(cur) {
		trace = append(trace, cur.Error())
	}
	return trace
}
