// FILE: src/internal/core/types.go
package core

import (
	"fmt"
	"strings"
)

// Status is the severity of a debug entry
type Status string

const (
	StatusStatus   Status = "status"
	StatusCritical Status = "critical"
	StatusFailure  Status = "failure"
	StatusError    Status = "error"
	StatusWarning  Status = "warning"
	StatusSuccess  Status = "success"
	StatusNotice   Status = "notice"
	StatusInfo     Status = "info"
)

// Statuses lists the closed status set in summary order
var Statuses = []Status{
	StatusStatus,
	StatusCritical,
	StatusFailure,
	StatusError,
	StatusWarning,
	StatusSuccess,
	StatusNotice,
	StatusInfo,
}

// Valid reports whether s belongs to the closed status set
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus validates a status name
func ParseStatus(name string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
	return s, nil
}

// RowKind selects the console method a row is replayed with.
// The string values are the method names the client dispatches to.
type RowKind string

const (
	KindLog            RowKind = ""
	KindInfo           RowKind = "info"
	KindWarn           RowKind = "warn"
	KindError          RowKind = "error"
	KindGroup          RowKind = "group"
	KindGroupEnd       RowKind = "groupEnd"
	KindGroupCollapsed RowKind = "groupCollapsed"
	KindTable          RowKind = "table"
)

var rowKinds = map[RowKind]bool{
	KindLog:            true,
	KindInfo:           true,
	KindWarn:           true,
	KindError:          true,
	KindGroup:          true,
	KindGroupEnd:       true,
	KindGroupCollapsed: true,
	KindTable:          true,
}

// Valid reports whether k is a known row kind
func (k RowKind) Valid() bool {
	return rowKinds[k]
}

// IsGroup reports whether k opens or closes a console group
func (k RowKind) IsGroup() bool {
	return k == KindGroup || k == KindGroupEnd || k == KindGroupCollapsed
}

func (k RowKind) String() string {
	if k == KindLog {
		return "log"
	}
	return string(k)
}
