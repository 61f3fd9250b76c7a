// FILE: src/internal/format/format.go
package format

import (
	"encoding/json"
	"fmt"

	"quantumlog/src/internal/core"

	"github.com/lixenwraith/log"
)

// Line is a single value of a row, as handed to a console method
type Line struct {
	Kind     core.RowKind
	Value    any
	Location string
}

// Formatter renders a Line as console text
type Formatter interface {
	// Format returns the console text for one value
	Format(line Line) (string, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a new Formatter based on the provided options
func New(name string, options map[string]any, logger *log.Logger) (Formatter, error) {
	// Default to txt if no format specified
	if name == "" {
		name = "txt"
	}

	switch name {
	case "txt", "text":
		return NewTextFormatter(options, logger)
	case "json":
		return NewJSONFormatter(options, logger)
	case "raw":
		return NewRawFormatter(options, logger)
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}

// Stringify renders a flattened value the way a console concatenates it:
// strings as-is, everything else as compact JSON
func Stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case string:
		return tv
	case fmt.Stringer:
		return tv.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
