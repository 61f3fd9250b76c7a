// FILE: src/internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// Producer errors, returned to the caller. ErrInvalidKind matches ErrInvalidLevel.
	ErrInvalidLevel = errors.New("invalid debug level")
	ErrInvalidKind  = fmt.Errorf("%w: unknown row kind", ErrInvalidLevel)

	// Degraded-signal errors, logged and swallowed by the transport layers
	ErrDepthExceeded   = errors.New("object graph too deep")
	ErrDecode          = errors.New("malformed log payload")
	ErrChannelWrite    = errors.New("channel write failed")
	ErrShrinkExhausted = errors.New("log cannot be shrunk below limit")
)
