// FILE: src/internal/source/source_test.go
package source

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
	"quantumlog/src/internal/transport"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func testEnvelope(msg string) *core.Envelope {
	env := core.NewEnvelope()
	env.Rows = append(env.Rows, core.Row{Payload: []any{msg}, Location: core.Loc("page.go:7"), Kind: core.KindWarn})
	return env
}

// startServer serves handler over an in-memory listener and points s at it
func startServer(t *testing.T, s *PageSource, handler fasthttp.RequestHandler) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	s.client.Dial = func(string) (net.Conn, error) { return ln.Dial() }
}

func TestNewPageSourceValidates(t *testing.T) {
	for _, u := range []string{"", "ftp://example.test/", "http://", "::bad"} {
		_, err := NewPageSource(PageOptions{URL: u}, newTestLogger())
		assert.Error(t, err, u)
	}

	s, err := NewPageSource(PageOptions{URL: "http://example.test:8080/app"}, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "example.test", s.host)
	assert.Equal(t, core.CookiePrefix, s.prefix)
}

func TestPageSourceCookieChannel(t *testing.T) {
	s, err := NewPageSource(PageOptions{URL: "http://example.test/"}, newTestLogger())
	require.NoError(t, err)

	tr := transport.NewTransmitter(transport.Options{Mode: transport.ModeCookie, FragmentSize: 64}, newTestLogger())
	env := testEnvelope("from server")
	var staleSeen []string
	startServer(t, s, func(ctx *fasthttp.RequestCtx) {
		if v := ctx.Request.Header.Cookie("fortephplog0"); v != nil {
			staleSeen = append(staleSeen, string(v))
		}
		ctx.SetBodyString("<html></html>")
		tr.Transmit(transport.NewFastHTTPChannel(ctx), env)
	})

	require.NoError(t, s.Refresh(context.Background()))
	want, err := format.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, want, s.ReadFragmented())
	assert.Empty(t, s.ReadFragmented(), "fragments are drained by the read")
	assert.Empty(t, s.ReadInline())

	// An unread response leaves fragments in the jar; the next request carries them
	require.NoError(t, s.Refresh(context.Background()))
	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, staleSeen, 1)
	assert.Equal(t, want, s.ReadFragmented())

	stats := s.Stats()
	assert.Equal(t, uint64(3), stats["total_fetches"])
	assert.Equal(t, uint64(0), stats["failed_fetches"])
}

func TestPageSourceInlineChannel(t *testing.T) {
	s, err := NewPageSource(PageOptions{URL: "http://example.test/"}, newTestLogger())
	require.NoError(t, err)

	tr := transport.NewTransmitter(transport.Options{Mode: transport.ModeInline}, newTestLogger())
	env := testEnvelope("inline")
	startServer(t, s, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("text/html")
		ctx.SetBodyString("<html><body>ok</body></html>")
		tr.Transmit(transport.NewFastHTTPChannel(ctx), env)
	})

	require.NoError(t, s.Refresh(context.Background()))
	want, err := format.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, want, s.ReadInline())
	assert.Equal(t, want, s.ReadInline(), "inline reads do not consume")
	assert.Empty(t, s.ReadFragmented())
}

func TestPageSourceFetchError(t *testing.T) {
	s, err := NewPageSource(PageOptions{URL: "http://example.test/", Timeout: 100 * time.Millisecond}, newTestLogger())
	require.NoError(t, err)
	s.client.Dial = func(string) (net.Conn, error) { return nil, &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded} }

	assert.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, uint64(1), s.Stats()["failed_fetches"])
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	f, err := NewFileSource(path, newTestLogger())
	require.NoError(t, err)

	require.NoError(t, f.Refresh(context.Background()), "missing file is not an error")
	assert.Empty(t, f.ReadInline())

	enc, err := format.Encode(testEnvelope("saved"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("<html><!-- fortephplog "+enc+" --></html>"), 0o644))

	require.NoError(t, f.Refresh(context.Background()))
	assert.Equal(t, enc, f.ReadInline())
	assert.Empty(t, f.ReadFragmented())

	_, err = NewFileSource("", newTestLogger())
	assert.Error(t, err)
}
