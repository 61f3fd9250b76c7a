// FILE: src/internal/transport/channel.go
package transport

import (
	"time"
)

// SameSite is the cookie SameSite attribute
type SameSite string

const (
	SameSiteLax  SameSite = "Lax"
	SameSiteNone SameSite = "None"
)

// Cookie is one cookie write, either a fragment or its expiry
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	Secure   bool
	SameSite SameSite
}

// Expired reports whether the cookie clears a previous value
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// ServerChannel is the response surface a Transmitter writes to.
// Writes return core.ErrChannelWrite once the response can no longer carry them.
type ServerChannel interface {
	// Cookie returns a cookie sent with the request
	Cookie(name string) (string, bool)
	SetCookie(c Cookie) error
	SetHeader(name, value string) error
	// WriteComment appends <!--text--> to the body
	WriteComment(text string) error
	// Secure reports whether the connection uses TLS
	Secure() bool
}

// sameSiteFor mirrors browser requirements: None only travels over TLS
func sameSiteFor(secure bool) SameSite {
	if secure {
		return SameSiteNone
	}
	return SameSiteLax
}
