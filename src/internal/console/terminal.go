// FILE: src/internal/console/terminal.go
package console

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"quantumlog/src/internal/format"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Preferred column order for debug entry tables
var entryColumns = []string{"Time", "Level", "Comment", "Function", "File", "Line", "Exception"}

const indexColumn = "(index)"

// Terminal is a Console that writes styled lines to an io.Writer
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	depth int

	plain  lipgloss.Style
	info   lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	group  lipgloss.Style
	header lipgloss.Style
}

// NewTerminal creates a terminal console. Colour is used only when w is a terminal.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	t := &Terminal{
		w:      w,
		plain:  r.NewStyle(),
		info:   r.NewStyle(),
		warn:   r.NewStyle(),
		err:    r.NewStyle(),
		group:  r.NewStyle(),
		header: r.NewStyle(),
	}
	if isTerminal(w) {
		t.info = t.info.Foreground(lipgloss.Color("#20B9B4"))
		t.warn = t.warn.Foreground(lipgloss.Color("#F4D03F"))
		t.err = t.err.Foreground(lipgloss.Color("#E74C3C")).Bold(true)
		t.group = t.group.Bold(true)
		t.header = t.header.Bold(true).Underline(true)
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Log(args ...any)   { t.line(t.plain, "", args) }
func (t *Terminal) Info(args ...any)  { t.line(t.info, "INFO ", args) }
func (t *Terminal) Warn(args ...any)  { t.line(t.warn, "WARN ", args) }
func (t *Terminal) Error(args ...any) { t.line(t.err, "ERROR ", args) }

func (t *Terminal) Group(args ...any) {
	t.line(t.group, "▼ ", args)
	t.mu.Lock()
	t.depth++
	t.mu.Unlock()
}

func (t *Terminal) GroupCollapsed(args ...any) {
	t.line(t.group, "▶ ", args)
	t.mu.Lock()
	t.depth++
	t.mu.Unlock()
}

func (t *Terminal) GroupEnd() {
	t.mu.Lock()
	if t.depth > 0 {
		t.depth--
	}
	t.mu.Unlock()
}

// Table renders a list or map of records as aligned columns
func (t *Terminal) Table(data any) {
	keys, records := tableRecords(data)
	if records == nil {
		t.Log(format.Stringify(data))
		return
	}

	columns := tableColumns(records)
	cells := make([][]string, 0, len(records)+1)
	cells = append(cells, append([]string{indexColumn}, columns...))
	for i, rec := range records {
		row := []string{keys[i]}
		for _, col := range columns {
			if v, ok := rec[col]; ok {
				row = append(row, cellText(v))
			} else {
				row = append(row, "")
			}
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	indent := strings.Repeat("  ", t.depth)
	for r, row := range cells {
		style := t.plain
		if r == 0 {
			style = t.header
		}
		parts := make([]string, len(row))
		for i, c := range row {
			parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		fmt.Fprintln(t.w, indent+style.Render(strings.TrimRight(strings.Join(parts, "  "), " ")))
	}
}

func (t *Terminal) line(style lipgloss.Style, prefix string, args []any) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = format.Stringify(a)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	indent := strings.Repeat("  ", t.depth)
	fmt.Fprintln(t.w, indent+style.Render(prefix+strings.Join(parts, " ")))
}

// tableRecords normalizes table data into index labels and records.
// Scalar rows become a single "Values" column like a browser console shows them.
func tableRecords(data any) ([]string, []map[string]any) {
	var keys []string
	var values []any

	switch v := data.(type) {
	case []any:
		for i, item := range v {
			keys = append(keys, strconv.Itoa(i))
			values = append(values, item)
		}
	case map[string]any:
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			values = append(values, v[k])
		}
	default:
		return nil, nil
	}

	records := make([]map[string]any, len(values))
	for i, item := range values {
		if m, ok := item.(map[string]any); ok {
			records[i] = m
		} else {
			records[i] = map[string]any{"Values": item}
		}
	}
	return keys, records
}

func tableColumns(records []map[string]any) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}

	var columns []string
	for _, c := range entryColumns {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(format.Stringify(v), "\n", " ")
}
