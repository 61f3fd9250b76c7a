// FILE: src/internal/format/raw.go
package format

import (
	"github.com/lixenwraith/log"
)

// RawFormatter emits the value alone; the location is dropped
type RawFormatter struct{}

func NewRawFormatter(_ map[string]any, _ *log.Logger) (*RawFormatter, error) {
	return &RawFormatter{}, nil
}

func (RawFormatter) Format(line Line) (string, error) {
	return Stringify(line.Value), nil
}

func (RawFormatter) Name() string {
	return "raw"
}
