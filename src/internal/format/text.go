// FILE: src/internal/format/text.go
package format

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/lixenwraith/log"
)

// DefaultTemplate appends the source location in brackets when one is known
const DefaultTemplate = "{{.Message}}{{if .Location}} [{{.Location}}]{{end}}"

// Produces console lines using templates
type TextFormatter struct {
	template *template.Template
	logger   *log.Logger
}

// Creates a new text formatter
func NewTextFormatter(options map[string]any, logger *log.Logger) (*TextFormatter, error) {
	text := DefaultTemplate
	if tmpl, ok := options["template"].(string); ok && tmpl != "" {
		text = tmpl
	}

	// Create template with helper functions
	funcMap := template.FuncMap{
		"ToUpper":   strings.ToUpper,
		"ToLower":   strings.ToLower,
		"TrimSpace": strings.TrimSpace,
	}

	tmpl, err := template.New("line").Funcs(funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	return &TextFormatter{
		template: tmpl,
		logger:   logger,
	}, nil
}

// Formats the line using the template
func (f *TextFormatter) Format(line Line) (string, error) {
	data := map[string]any{
		"Kind":     line.Kind.String(),
		"Message":  Stringify(line.Value),
		"Location": line.Location,
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		// Fallback: basic concatenation
		f.logger.Debug("msg", "Template execution failed, using fallback",
			"component", "text_formatter",
			"error", err)

		if line.Location == "" {
			return Stringify(line.Value), nil
		}
		return Stringify(line.Value) + " [" + line.Location + "]", nil
	}

	return buf.String(), nil
}

// Returns the formatter name
func (f *TextFormatter) Name() string {
	return "txt"
}
