// FILE: src/internal/format/json.go
package format

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"quantumlog/src/internal/core"

	"github.com/lixenwraith/log"
)

// Encode serializes the envelope as JSON and wraps it in standard base64
func Encode(env *core.Envelope) (string, error) {
	data, err := EncodeJSON(env)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeJSON returns the JSON document carried inside the base64 wrapper
func EncodeJSON(env *core.Envelope) ([]byte, error) {
	if env == nil {
		env = core.NewEnvelope()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode.
// An empty payload decodes to a nil envelope and no error.
func Decode(s string) (*core.Envelope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Unpadded payloads show up when a proxy trims trailing '='
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: base64: %v", core.ErrDecode, err)
		}
		data = raw
	}

	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: json: %v", core.ErrDecode, err)
	}
	if env.Rows == nil {
		env.Rows = []core.Row{}
	}
	return &env, nil
}

// Produces a compact (or indented) JSON rendering of a value plus location
type JSONFormatter struct {
	pretty bool
	logger *log.Logger
}

// NewJSONFormatter creates a new JSON line formatter from options
func NewJSONFormatter(options map[string]any, logger *log.Logger) (*JSONFormatter, error) {
	f := &JSONFormatter{
		logger: logger,
	}
	if pretty, ok := options["pretty"].(bool); ok {
		f.pretty = pretty
	}
	return f, nil
}

// Format transforms a single value into a JSON line
func (f *JSONFormatter) Format(line Line) (string, error) {
	output := map[string]any{
		"type":  line.Kind.String(),
		"value": line.Value,
	}
	if line.Location != "" {
		output["backtrace"] = line.Location
	}

	var result []byte
	var err error
	if f.pretty {
		result, err = json.MarshalIndent(output, "", "  ")
	} else {
		result, err = json.Marshal(output)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(result), nil
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}
