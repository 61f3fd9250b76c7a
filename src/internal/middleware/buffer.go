// FILE: src/internal/middleware/buffer.go
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"quantumlog/src/internal/buffer"
	"quantumlog/src/internal/core"
	"quantumlog/src/internal/transport"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

const (
	bufferUserValue    = "quantumlog.buffer"
	requestIDUserValue = "quantumlog.request_id"
)

type bufferContextKey struct{}

// Options configures the per-request buffer middleware
type Options struct {
	Transmitter *transport.Transmitter
	Settings    map[string]any
}

// FastHTTP gives every request its own Buffer and transmits it after next returns.
// Producers reach the buffer through FromFastHTTP.
func FastHTTP(next fasthttp.RequestHandler, opts Options, logger *log.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		requestID := uuid.NewString()
		b := buffer.New(logger, buffer.Options{
			Host:       string(ctx.Host()),
			RequestURI: string(ctx.URI().RequestURI()),
			Settings:   opts.Settings,
		})
		ctx.SetUserValue(bufferUserValue, b)
		ctx.SetUserValue(requestIDUserValue, requestID)

		next(ctx)

		finish(transport.NewFastHTTPChannel(ctx), b, opts.Transmitter, requestID, logger)
		ctx.RemoveUserValue(bufferUserValue)
	}
}

// FromFastHTTP returns the request buffer, or nil outside the middleware
func FromFastHTTP(ctx *fasthttp.RequestCtx) *buffer.Buffer {
	b, _ := ctx.UserValue(bufferUserValue).(*buffer.Buffer)
	return b
}

// RequestID returns the id tagging operator logs for this request
func RequestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDUserValue).(string)
	return id
}

// HTTP is the net/http form of FastHTTP. Header and cookie channels only
// work when next leaves the status line unwritten; otherwise the write is
// refused and logged.
func HTTP(next http.Handler, opts Options, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		b := buffer.New(logger, buffer.Options{
			Host:       r.Host,
			RequestURI: r.URL.RequestURI(),
			Settings:   opts.Settings,
		})

		ch := transport.NewHTTPChannel(w, r)
		ctx := context.WithValue(r.Context(), bufferContextKey{}, b)
		next.ServeHTTP(ch, r.WithContext(ctx))

		finish(ch, b, opts.Transmitter, requestID, logger)
	})
}

// FromContext returns the request buffer stored by HTTP, or nil
func FromContext(ctx context.Context) *buffer.Buffer {
	b, _ := ctx.Value(bufferContextKey{}).(*buffer.Buffer)
	return b
}

// finish flushes and transmits. Nothing here may fail the host response.
func finish(ch transport.ServerChannel, b *buffer.Buffer, tr *transport.Transmitter, requestID string, logger *log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("msg", "Log transmission panicked",
				"component", "middleware",
				"request_id", requestID,
				"error", fmt.Errorf("%w: %v", core.ErrChannelWrite, r))
		}
	}()

	if tr == nil {
		return
	}
	env := b.Flush()
	res := tr.Transmit(ch, env)
	logger.Debug("msg", "Request log flushed",
		"component", "middleware",
		"request_id", requestID,
		"rows", len(env.Rows),
		"mode", res.Mode,
		"bytes", res.Bytes,
		"ok", res.OK())
}
