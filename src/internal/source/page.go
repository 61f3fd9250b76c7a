// FILE: src/internal/source/page.go
package source

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/transport"
	"quantumlog/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// PageOptions configures a PageSource
type PageOptions struct {
	URL          string
	Timeout      time.Duration
	CookiePrefix string
}

// PageSource plays the browser: it fetches a page, keeps its cookies in a
// jar and exposes both channels to the poller.
type PageSource struct {
	url    string
	host   string
	prefix string

	client *fasthttp.Client
	jar    *transport.MemoryJar
	logger *log.Logger

	mu   sync.RWMutex
	body string

	// Statistics
	totalFetches  atomic.Uint64
	failedFetches atomic.Uint64
	lastFetch     atomic.Value // time.Time
}

// NewPageSource validates opts and creates the HTTP client
func NewPageSource(opts PageOptions, logger *log.Logger) (*PageSource, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("page url must be http or https, got %q", opts.URL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("page url has no host: %q", opts.URL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	prefix := opts.CookiePrefix
	if prefix == "" {
		prefix = core.CookiePrefix
	}

	s := &PageSource{
		url:    opts.URL,
		host:   u.Hostname(),
		prefix: prefix,
		jar:    transport.NewMemoryJar(),
		logger: logger,
		client: &fasthttp.Client{
			Name:                version.UserAgent(),
			MaxConnsPerHost:     2,
			MaxIdleConnDuration: 10 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
	}
	s.lastFetch.Store(time.Time{})
	return s, nil
}

// Refresh fetches the page, sending the jar's cookies and storing the
// response cookies and body
func (s *PageSource) Refresh(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	s.jar.Apply(req)

	s.totalFetches.Add(1)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = s.client.DoDeadline(req, resp, deadline)
	} else {
		err = s.client.Do(req, resp)
	}
	if err != nil {
		s.failedFetches.Add(1)
		return fmt.Errorf("fetch %s: %w", s.url, err)
	}

	// Cookies count even on error pages; the server may still have logged
	s.jar.Ingest(resp)

	if code := resp.StatusCode(); code >= 400 {
		s.failedFetches.Add(1)
		s.logger.Debug("msg", "Page returned error status",
			"component", "page_source",
			"url", s.url,
			"status", code)
	}

	s.mu.Lock()
	s.body = string(resp.Body())
	s.mu.Unlock()
	s.lastFetch.Store(time.Now())
	return nil
}

// ReadFragmented drains the cookie fragments from the jar
func (s *PageSource) ReadFragmented() string {
	return transport.ReadFragmented(s.jar, s.prefix, s.host)
}

// ReadInline extracts the comment payload of the last fetched body
func (s *PageSource) ReadInline() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transport.ReadInline(s.body)
}

// Stats returns fetch counters
func (s *PageSource) Stats() map[string]any {
	lastFetch, _ := s.lastFetch.Load().(time.Time)
	return map[string]any{
		"url":            s.url,
		"total_fetches":  s.totalFetches.Load(),
		"failed_fetches": s.failedFetches.Load(),
		"last_fetch":     lastFetch,
		"jar_cookies":    s.jar.Len(),
	}
}
