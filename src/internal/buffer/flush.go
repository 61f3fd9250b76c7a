// FILE: src/internal/buffer/flush.go
package buffer

import (
	"fmt"
	"runtime"
	"strings"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/version"
)

// Flush finalizes the unit of work: the summary row goes first, the debug entries
// are appended as one table row, and the buffer is drained
func (b *Buffer) Flush() *core.Envelope {
	location := b.callerLocation(1)

	summary := core.Row{
		Payload:  []any{b.summary()},
		Location: b.dedup(core.KindInfo, location),
		Kind:     core.KindInfo,
	}
	b.Prepend(summary)

	if len(b.entries) > 0 {
		list := make([]any, len(b.entries))
		for i, e := range b.entries {
			list[i] = e
		}
		b.rows = append(b.rows, core.Row{
			Payload:  []any{list},
			Location: b.dedup(core.KindTable, location),
			Kind:     core.KindTable,
		})
	}

	return b.Drain()
}

// LevelCounts returns the number of non-status entries per level
func (b *Buffer) LevelCounts() map[core.Status]int {
	counts := make(map[core.Status]int)
	for _, e := range b.entries {
		if e.Level != core.StatusStatus {
			counts[e.Level]++
		}
	}
	return counts
}

func (b *Buffer) summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "quantumlog %s: %s%s ", version.Short(), b.host, b.requestURI)

	counts := b.LevelCounts()
	for _, level := range core.Statuses {
		n := counts[level]
		if n == 0 {
			continue
		}
		plural := "s"
		if n == 1 {
			plural = ""
		}
		fmt.Fprintf(&sb, " (%d %s message%s)", n, level, plural)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&sb, " Peak Memory Usage %.2fMB ", float64(mem.Sys)/(1024*1024))
	return sb.String()
}
