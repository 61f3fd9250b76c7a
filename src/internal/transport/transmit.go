// FILE: src/internal/transport/transmit.go
package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
	"quantumlog/src/internal/metrics"
	"quantumlog/src/internal/shrink"

	"github.com/lixenwraith/log"
)

// Mode selects the channels an envelope is written to
type Mode string

const (
	ModeInline Mode = "inline"
	ModeCookie Mode = "cookie"
	ModeHeader Mode = "header"
	ModeBoth   Mode = "both" // cookie and header
)

// ParseMode validates a transport mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeInline, ModeCookie, ModeHeader, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown transport mode %q", s)
	}
}

func (m Mode) cookies() bool { return m == ModeCookie || m == ModeBoth }
func (m Mode) header() bool  { return m == ModeHeader || m == ModeBoth }

// Options configures a Transmitter. Zero values take the protocol defaults.
type Options struct {
	Mode         Mode
	HeaderName   string
	HeaderLimit  int
	FragmentSize int
	CookiePrefix string
	CookieTTL    time.Duration
}

// Transmitter writes flushed envelopes to a ServerChannel
type Transmitter struct {
	Mode         Mode
	HeaderName   string
	HeaderLimit  int
	FragmentSize int
	CookiePrefix string
	CookieTTL    time.Duration

	logger *log.Logger
	now    func() time.Time
}

// Result summarizes one transmission for operator logging
type Result struct {
	Mode      Mode
	Bytes     int // encoded length sent
	Fragments int
	Cleared   int // stale fragments expired
	Truncated bool
	Removed   int
	Errors    []error
}

// OK reports whether every channel write succeeded
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// NewTransmitter applies defaults to opts
func NewTransmitter(opts Options, logger *log.Logger) *Transmitter {
	t := &Transmitter{
		Mode:         opts.Mode,
		HeaderName:   opts.HeaderName,
		HeaderLimit:  opts.HeaderLimit,
		FragmentSize: opts.FragmentSize,
		CookiePrefix: opts.CookiePrefix,
		CookieTTL:    opts.CookieTTL,
		logger:       logger,
		now:          time.Now,
	}
	if t.Mode == "" {
		t.Mode = ModeCookie
	}
	if t.HeaderName == "" {
		t.HeaderName = core.HeaderName
	}
	if t.HeaderLimit <= 0 {
		t.HeaderLimit = core.DefaultHeaderLimit
	}
	if t.FragmentSize <= 0 {
		t.FragmentSize = core.DefaultFragmentSize
	}
	if t.CookiePrefix == "" {
		t.CookiePrefix = core.CookiePrefix
	}
	if t.CookieTTL <= 0 {
		t.CookieTTL = core.DefaultCookieTTLSecs * time.Second
	}
	return t
}

// Transmit writes env to ch according to the configured mode.
// It never fails the caller; channel errors are logged and reported in the Result.
func (t *Transmitter) Transmit(ch ServerChannel, env *core.Envelope) Result {
	res := Result{Mode: t.Mode}
	if env == nil {
		env = core.NewEnvelope()
	}

	// Previous fragments must not outlive this response, whatever the mode
	res.Cleared = t.clearStale(ch, &res)

	switch {
	case t.Mode == ModeInline:
		encoded, err := format.Encode(env)
		if err != nil {
			res.Errors = append(res.Errors, err)
			break
		}
		res.Bytes = len(encoded)
		if err := ch.WriteComment(" " + core.InlineToken + " " + encoded + " "); err != nil {
			res.Errors = append(res.Errors, err)
		}

	case t.Mode.cookies() || t.Mode.header():
		encoded, ok := t.shrink(env, &res)
		if !ok {
			break
		}
		res.Bytes = len(encoded)
		if t.Mode.cookies() {
			t.writeFragments(ch, encoded, &res)
		}
		if t.Mode.header() {
			if err := ch.SetHeader(t.HeaderName, encoded); err != nil {
				res.Errors = append(res.Errors, err)
			}
		}

	default:
		res.Errors = append(res.Errors, fmt.Errorf("unknown transport mode %q", t.Mode))
	}

	t.report(res)
	return res
}

func (t *Transmitter) shrink(env *core.Envelope, res *Result) (string, bool) {
	out, err := shrink.Apply(env, t.HeaderLimit)
	if out == nil {
		res.Errors = append(res.Errors, err)
		return "", false
	}

	res.Truncated = out.Truncated
	res.Removed = out.Removed
	switch {
	case errors.Is(err, core.ErrShrinkExhausted):
		metrics.ShrinkTotal.WithLabelValues(metrics.ResultExhausted).Inc()
		t.logger.Warn("msg", "Envelope exceeds transport limit after shrinking",
			"component", "transmitter",
			"limit", t.HeaderLimit,
			"bytes", len(out.Encoded))
	case out.Truncated:
		metrics.ShrinkTotal.WithLabelValues(metrics.ResultTruncated).Inc()
	default:
		metrics.ShrinkTotal.WithLabelValues(metrics.ResultOK).Inc()
	}
	return out.Encoded, true
}

// clearStale expires every fragment the request still carries, probing from index 0
func (t *Transmitter) clearStale(ch ServerChannel, res *Result) int {
	secure := ch.Secure()
	cleared := 0
	for i := 0; ; i++ {
		name := t.fragmentName(i)
		if _, ok := ch.Cookie(name); !ok {
			break
		}
		err := ch.SetCookie(Cookie{
			Name:     name,
			Path:     "/",
			Expires:  time.Unix(0, 0),
			Secure:   secure,
			SameSite: sameSiteFor(secure),
		})
		if err != nil {
			res.Errors = append(res.Errors, err)
			break
		}
		cleared++
	}
	return cleared
}

func (t *Transmitter) writeFragments(ch ServerChannel, encoded string, res *Result) {
	secure := ch.Secure()
	expires := t.now().Add(t.CookieTTL)
	for i, frag := range Split(encoded, t.FragmentSize) {
		err := ch.SetCookie(Cookie{
			Name:     t.fragmentName(i),
			Value:    frag,
			Path:     "/",
			Expires:  expires,
			Secure:   secure,
			SameSite: sameSiteFor(secure),
		})
		if err != nil {
			res.Errors = append(res.Errors, err)
			return
		}
		res.Fragments++
	}
	metrics.FragmentsWritten.Add(float64(res.Fragments))
}

func (t *Transmitter) fragmentName(i int) string {
	return t.CookiePrefix + strconv.Itoa(i)
}

func (t *Transmitter) report(res Result) {
	if res.OK() {
		metrics.TransmitTotal.WithLabelValues(string(res.Mode), metrics.ResultOK).Inc()
		t.logger.Debug("msg", "Envelope transmitted",
			"component", "transmitter",
			"mode", res.Mode,
			"bytes", res.Bytes,
			"fragments", res.Fragments,
			"cleared", res.Cleared,
			"truncated", res.Truncated)
		return
	}

	metrics.TransmitTotal.WithLabelValues(string(res.Mode), metrics.ResultError).Inc()
	t.logger.Warn("msg", "Envelope transmission incomplete",
		"component", "transmitter",
		"mode", res.Mode,
		"error", errors.Join(res.Errors...))
}
