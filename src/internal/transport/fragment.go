// FILE: src/internal/transport/fragment.go
package transport

import (
	"strconv"
	"strings"
)

// Split cuts s into consecutive pieces of at most size bytes.
// The encoded payload is base64, so byte boundaries never split a rune.
func Split(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 || len(s) <= size {
		return []string{s}
	}

	parts := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		parts = append(parts, s[:size])
		s = s[size:]
	}
	return append(parts, s)
}

// ClientJar is the cookie store the client side reads fragments from
type ClientJar interface {
	Get(name string) (string, bool)
	// Expire removes the cookie scoped exactly to path and domain.
	// An empty domain addresses a host-only cookie.
	Expire(name, path, domain string)
}

// ReadFragmented concatenates prefix0, prefix1, ... until an index is missing.
// Every fragment read is expired with each domain scoping a server may have
// used, since deletion only takes effect when the scope matches exactly.
func ReadFragmented(jar ClientJar, prefix, host string) string {
	var sb strings.Builder
	for i := 0; ; i++ {
		name := prefix + strconv.Itoa(i)
		v, ok := jar.Get(name)
		if !ok {
			break
		}
		sb.WriteString(v)

		jar.Expire(name, "/", "")
		if host != "" {
			jar.Expire(name, "/", host)
			jar.Expire(name, "/", "."+host)
		}
		if v == "" {
			break
		}
	}
	return sb.String()
}
