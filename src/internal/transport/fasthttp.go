// FILE: src/internal/transport/fasthttp.go
package transport

import (
	"fmt"

	"quantumlog/src/internal/core"

	"github.com/valyala/fasthttp"
)

// FastHTTPChannel adapts a fasthttp request context
type FastHTTPChannel struct {
	ctx *fasthttp.RequestCtx
}

// NewFastHTTPChannel wraps ctx
func NewFastHTTPChannel(ctx *fasthttp.RequestCtx) *FastHTTPChannel {
	return &FastHTTPChannel{ctx: ctx}
}

func (f *FastHTTPChannel) Cookie(name string) (string, bool) {
	v := f.ctx.Request.Header.Cookie(name)
	if v == nil {
		return "", false
	}
	return string(v), true
}

func (f *FastHTTPChannel) SetCookie(c Cookie) error {
	if f.ctx.Hijacked() {
		return fmt.Errorf("%w: connection hijacked", core.ErrChannelWrite)
	}

	fc := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(fc)

	fc.SetKey(c.Name)
	fc.SetValue(c.Value)
	fc.SetPath(c.Path)
	if c.Domain != "" {
		fc.SetDomain(c.Domain)
	}
	if !c.Expires.IsZero() {
		fc.SetExpire(c.Expires)
	}
	fc.SetSecure(c.Secure)
	switch c.SameSite {
	case SameSiteNone:
		fc.SetSameSite(fasthttp.CookieSameSiteNoneMode)
	case SameSiteLax:
		fc.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	}

	// SetCookie replaces any earlier cookie with the same key
	f.ctx.Response.Header.SetCookie(fc)
	return nil
}

func (f *FastHTTPChannel) SetHeader(name, value string) error {
	if f.ctx.Hijacked() {
		return fmt.Errorf("%w: connection hijacked", core.ErrChannelWrite)
	}
	f.ctx.Response.Header.Set(name, value)
	return nil
}

func (f *FastHTTPChannel) WriteComment(text string) error {
	if f.ctx.Hijacked() {
		return fmt.Errorf("%w: connection hijacked", core.ErrChannelWrite)
	}
	if f.ctx.Response.IsBodyStream() {
		return fmt.Errorf("%w: body is streamed", core.ErrChannelWrite)
	}
	f.ctx.WriteString("<!--" + text + "-->")
	return nil
}

func (f *FastHTTPChannel) Secure() bool {
	return f.ctx.IsTLS()
}
