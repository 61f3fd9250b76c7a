// FILE: src/internal/server/server_test.go
package server

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
	"quantumlog/src/internal/transport"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)
	return cfg
}

func newServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := loadConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func serve(s *Server, uri string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(uri)
	s.Handler()(&ctx)
	return &ctx
}

func kinds(env *core.Envelope) []core.RowKind {
	out := make([]core.RowKind, len(env.Rows))
	for i, r := range env.Rows {
		out[i] = r.Kind
	}
	return out
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, newTestLogger())
	assert.Error(t, err)
}

func TestNew_InvalidTransport(t *testing.T) {
	cfg := loadConfig(t)
	cfg.Transport.Mode = "carrier-pigeon"
	_, err := New(cfg, newTestLogger())
	assert.Error(t, err)
}

func TestPage_HeaderMode(t *testing.T) {
	s := newServer(t, func(c *config.Config) { c.Transport.Mode = "header" })

	ctx := serve(s, "http://example.test/checkout?fail=1")

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "<p>/checkout</p>")

	env, err := format.Decode(string(ctx.Response.Header.Peek(core.HeaderName)))
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, "/checkout?fail=1", env.RequestURI)
	assert.Equal(t, []core.RowKind{
		core.KindInfo,     // summary
		core.KindInfo,     // request received
		core.KindGroup,    // request
		core.KindLog,      // request details
		core.KindGroupEnd, // request
		core.KindTable,    // query args
		core.KindError,    // render error
		core.KindTable,    // debug entries
	}, kinds(env))
	assert.Contains(t, env.Rows[0].Payload[0], "(1 error message)")
}

func TestPage_CookieMode(t *testing.T) {
	s := newServer(t, func(c *config.Config) {
		c.Transport.Mode = "cookie"
		c.Transport.FragmentSize = 100
	})

	ctx := serve(s, "http://example.test/?slow=1")
	assert.Empty(t, ctx.Response.Header.Peek(core.HeaderName))

	jar := transport.NewMemoryJar()
	jar.Ingest(&ctx.Response)
	assert.Greater(t, jar.Len(), 1, "payload spans several fragments")

	env, err := format.Decode(transport.ReadFragmented(jar, core.CookiePrefix, "example.test"))
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Contains(t, kinds(env), core.KindWarn)
	assert.Equal(t, 0, jar.Len())
}

func TestPage_InlineMode(t *testing.T) {
	s := newServer(t, func(c *config.Config) { c.Transport.Mode = "inline" })

	ctx := serve(s, "http://example.test/")

	payload := transport.ReadInline(string(ctx.Response.Body()))
	require.NotEmpty(t, payload)
	env, err := format.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, core.KindInfo, env.Rows[0].Kind)
}

func TestStatus(t *testing.T) {
	s := newServer(t, nil)

	serve(s, "http://example.test/")
	ctx := serve(s, "http://example.test/status")

	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	var status map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &status))
	assert.Equal(t, "quantumlog", status["service"])
	assert.Equal(t, core.ProtocolVersion, status["protocol"])
	assert.EqualValues(t, 2, status["total_requests"])
	assert.EqualValues(t, 0, status["reloads"])

	tr, ok := status["transport"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cookie", tr["mode"])
	assert.Equal(t, map[string]any{"enabled": false}, status["rate_limit"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, func(c *config.Config) { c.Transport.Mode = "header" })

	serve(s, "http://example.test/")
	ctx := serve(s, "http://example.test/metrics")

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "quantumlog_transmit_total")
	assert.Empty(t, ctx.Response.Header.Peek(core.HeaderName), "metrics are not logged")
}

func TestReload(t *testing.T) {
	s := newServer(t, nil)

	next := loadConfig(t).Transport
	next.Mode = "header"
	require.NoError(t, s.Reload(next))

	ctx := serve(s, "http://example.test/")
	assert.NotEmpty(t, ctx.Response.Header.Peek(core.HeaderName))
	assert.Equal(t, uint64(1), s.reloads.Load())

	bad := next
	bad.FragmentSize = 0
	assert.Error(t, s.Reload(bad))
	assert.Equal(t, transport.ModeHeader, s.transmitter.Load().Mode, "failed reload keeps the previous transport")
	assert.Equal(t, uint64(1), s.reloads.Load())
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, func(c *config.Config) {
		c.Server.RateLimit.Enabled = true
		c.Server.RateLimit.RequestsPerSecond = 0.001
		c.Server.RateLimit.BurstSize = 1
	})

	assert.Equal(t, fasthttp.StatusOK, serve(s, "http://example.test/").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusTooManyRequests, serve(s, "http://example.test/").Response.StatusCode())

	assert.EqualValues(t, 1, s.rateLimiter.Stats()["rejected_requests"])
}

func TestShouldReload(t *testing.T) {
	assert.True(t, shouldReload("transport"))
	assert.True(t, shouldReload("transport.mode"))
	assert.False(t, shouldReload("server.port"))
	assert.False(t, shouldReload("transports"))
	assert.False(t, shouldReload("logging.level"))
}
