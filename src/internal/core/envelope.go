// FILE: src/internal/core/envelope.go
package core

import (
	"encoding/json"
	"fmt"
)

// Row is one transported console line: [payload, backtrace, type]
type Row struct {
	Payload  []any
	Location *string
	Kind     RowKind
}

// Envelope is the full log snapshot for one flush
type Envelope struct {
	Version    string   `json:"version"`
	Columns    []string `json:"columns"`
	Rows       []Row    `json:"rows"`
	RequestURI string   `json:"request_uri,omitempty"`
}

// NewEnvelope returns an empty envelope with the fixed column layout
func NewEnvelope() *Envelope {
	cols := make([]string, len(Columns))
	copy(cols, Columns)
	return &Envelope{
		Version: ProtocolVersion,
		Columns: cols,
		Rows:    []Row{},
	}
}

// Loc returns a location pointer for s
func Loc(s string) *string {
	return &s
}

// LocationString returns the location or "" when nulled
func (r Row) LocationString() string {
	if r.Location == nil {
		return ""
	}
	return *r.Location
}

func (r Row) MarshalJSON() ([]byte, error) {
	payload := r.Payload
	if payload == nil {
		payload = []any{}
	}
	return json.Marshal([]any{payload, r.Location, string(r.Kind)})
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("row has %d columns, want 3", len(parts))
	}

	var payload []any
	if err := json.Unmarshal(parts[0], &payload); err != nil {
		return fmt.Errorf("row payload: %w", err)
	}
	if payload == nil {
		payload = []any{}
	}

	var loc *string
	if err := json.Unmarshal(parts[1], &loc); err != nil {
		return fmt.Errorf("row backtrace: %w", err)
	}

	var kind string
	if err := json.Unmarshal(parts[2], &kind); err != nil {
		return fmt.Errorf("row type: %w", err)
	}

	r.Payload = payload
	r.Location = loc
	r.Kind = RowKind(kind)
	return nil
}
