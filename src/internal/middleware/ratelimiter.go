// FILE: src/internal/middleware/ratelimiter.go
package middleware

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// RateLimiter provides per-client rate limiting for the demo server
type RateLimiter struct {
	clients         sync.Map // map[string]*clientLimiter
	requestsPerSec  float64
	burstSize       int
	cleanupInterval time.Duration
	logger          *log.Logger
	done            chan struct{}
	stopOnce        sync.Once

	rejected atomic.Uint64
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// NewRateLimiter creates a limiter and starts its cleanup routine
func NewRateLimiter(requestsPerSec float64, burstSize int, cleanupInterval time.Duration, logger *log.Logger) *RateLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	rl := &RateLimiter{
		requestsPerSec:  requestsPerSec,
		burstSize:       burstSize,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		done:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Middleware rejects requests above the client's rate with 429
func (rl *RateLimiter) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		clientIP := ctx.RemoteIP().String()
		if forwarded := ctx.Request.Header.Peek("X-Forwarded-For"); len(forwarded) > 0 {
			clientIP = string(forwarded)
		}

		if !rl.getLimiter(clientIP).Allow() {
			rl.rejected.Add(1)
			rl.logger.Debug("msg", "Request rate limited",
				"component", "rate_limiter",
				"client", clientIP)
			ctx.Error("Rate limit exceeded", fasthttp.StatusTooManyRequests)
			return
		}

		next(ctx)
	}
}

// getLimiter returns the rate limiter for a client
func (rl *RateLimiter) getLimiter(clientIP string) *rate.Limiter {
	now := time.Now().UnixNano()
	if val, ok := rl.clients.Load(clientIP); ok {
		client := val.(*clientLimiter)
		client.lastSeen.Store(now)
		return client.limiter
	}

	client := &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.requestsPerSec), rl.burstSize)}
	client.lastSeen.Store(now)
	actual, _ := rl.clients.LoadOrStore(clientIP, client)
	return actual.(*clientLimiter).limiter
}

// cleanup removes old client limiters
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.removeOldClients(time.Now())
		}
	}
}

// removeOldClients removes limiters that haven't been seen for two cleanup intervals
func (rl *RateLimiter) removeOldClients(now time.Time) {
	threshold := now.Add(-rl.cleanupInterval * 2).UnixNano()

	rl.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < threshold {
			rl.clients.Delete(key)
		}
		return true
	})
}

// Stop shuts down the cleanup routine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Stats returns current rate limiter statistics
func (rl *RateLimiter) Stats() map[string]any {
	count := 0
	rl.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return map[string]any{
		"active_clients":    count,
		"rejected_requests": rl.rejected.Load(),
	}
}
