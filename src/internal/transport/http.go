// FILE: src/internal/transport/http.go
package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"quantumlog/src/internal/core"
)

// HTTPChannel adapts net/http. It wraps the ResponseWriter so header and
// cookie writes can be refused once the status line has been sent.
type HTTPChannel struct {
	w           http.ResponseWriter
	r           *http.Request
	wroteHeader bool
}

// NewHTTPChannel wraps w and r. Handlers must write through the returned
// channel for the header-sent state to be tracked.
func NewHTTPChannel(w http.ResponseWriter, r *http.Request) *HTTPChannel {
	return &HTTPChannel{w: w, r: r}
}

// Header implements http.ResponseWriter
func (h *HTTPChannel) Header() http.Header {
	return h.w.Header()
}

// WriteHeader implements http.ResponseWriter
func (h *HTTPChannel) WriteHeader(status int) {
	if h.wroteHeader {
		return
	}
	h.wroteHeader = true
	h.w.WriteHeader(status)
}

// Write implements http.ResponseWriter
func (h *HTTPChannel) Write(p []byte) (int, error) {
	h.wroteHeader = true
	return h.w.Write(p)
}

// HeaderWritten reports whether the status line has been sent
func (h *HTTPChannel) HeaderWritten() bool {
	return h.wroteHeader
}

func (h *HTTPChannel) Cookie(name string) (string, bool) {
	c, err := h.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (h *HTTPChannel) SetCookie(c Cookie) error {
	if h.wroteHeader {
		return fmt.Errorf("%w: headers already sent", core.ErrChannelWrite)
	}

	hc := &http.Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Path:    c.Path,
		Domain:  c.Domain,
		Expires: c.Expires,
		Secure:  c.Secure,
	}
	switch c.SameSite {
	case SameSiteNone:
		hc.SameSite = http.SameSiteNoneMode
	case SameSiteLax:
		hc.SameSite = http.SameSiteLaxMode
	}

	line := hc.String()
	if line == "" {
		return fmt.Errorf("%w: invalid cookie %q", core.ErrChannelWrite, c.Name)
	}

	// Keep one Set-Cookie per name so the later write wins
	header := h.w.Header()
	prefix := c.Name + "="
	var kept []string
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	header["Set-Cookie"] = append(kept, line)
	return nil
}

func (h *HTTPChannel) SetHeader(name, value string) error {
	if h.wroteHeader {
		return fmt.Errorf("%w: headers already sent", core.ErrChannelWrite)
	}
	h.w.Header().Set(name, value)
	return nil
}

func (h *HTTPChannel) WriteComment(text string) error {
	if _, err := io.WriteString(h, "<!--"+text+"-->"); err != nil {
		return fmt.Errorf("%w: %v", core.ErrChannelWrite, err)
	}
	return nil
}

func (h *HTTPChannel) Secure() bool {
	return h.r.TLS != nil
}
