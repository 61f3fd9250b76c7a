// FILE: src/internal/transport/jar.go
package transport

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

type jarKey struct {
	name, path, domain string
}

type jarEntry struct {
	value   string
	expires time.Time
}

// MemoryJar is an in-process ClientJar fed from fasthttp responses.
// Cookies are keyed by name, path and domain like a browser store.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[jarKey]jarEntry
	now     func() time.Time
}

// NewMemoryJar creates an empty jar
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{
		cookies: make(map[jarKey]jarEntry),
		now:     time.Now,
	}
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimPrefix(d, "."))
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// Set stores or, when expires is in the past, deletes a cookie
func (j *MemoryJar) Set(name, value, path, domain string, expires time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	k := jarKey{name: name, path: normalizePath(path), domain: normalizeDomain(domain)}
	if !expires.IsZero() && !expires.After(j.now()) {
		delete(j.cookies, k)
		return
	}
	j.cookies[k] = jarEntry{value: value, expires: expires}
}

// Get returns the value of the first live cookie named name
func (j *MemoryJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, k := range j.sortedKeysLocked() {
		if k.name != name {
			continue
		}
		e := j.cookies[k]
		if !e.expires.IsZero() && !e.expires.After(now) {
			delete(j.cookies, k)
			continue
		}
		return e.value, true
	}
	return "", false
}

// Expire deletes the cookie only when path and domain match its scope
func (j *MemoryJar) Expire(name, path, domain string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, jarKey{name: name, path: normalizePath(path), domain: normalizeDomain(domain)})
}

// Len returns the number of stored cookies
func (j *MemoryJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// Ingest applies every Set-Cookie header of resp to the jar
func (j *MemoryJar) Ingest(resp *fasthttp.Response) {
	resp.Header.VisitAllCookie(func(_, value []byte) {
		c := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(c)
		if err := c.ParseBytes(value); err != nil {
			return
		}

		expires := c.Expire()
		if expires.Equal(fasthttp.CookieExpireUnlimited) {
			expires = time.Time{}
		}
		if c.MaxAge() > 0 {
			expires = j.now().Add(time.Duration(c.MaxAge()) * time.Second)
		} else if c.MaxAge() < 0 {
			expires = time.Unix(0, 0)
		}

		j.Set(string(c.Key()), string(c.Value()), string(c.Path()), string(c.Domain()), expires)
	})
}

// Apply sends every live cookie with req
func (j *MemoryJar) Apply(req *fasthttp.Request) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for _, k := range j.sortedKeysLocked() {
		e := j.cookies[k]
		if !e.expires.IsZero() && !e.expires.After(now) {
			continue
		}
		req.Header.SetCookie(k.name, e.value)
	}
}

// Host-only cookies sort before domain cookies so lookups are deterministic
func (j *MemoryJar) sortedKeysLocked() []jarKey {
	keys := make([]jarKey, 0, len(j.cookies))
	for k := range j.cookies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].name != keys[b].name {
			return keys[a].name < keys[b].name
		}
		if keys[a].domain != keys[b].domain {
			return keys[a].domain < keys[b].domain
		}
		return keys[a].path < keys[b].path
	})
	return keys
}
