// Package ratelimit provides per-key token bucket rate limiting for the
// pixelplant MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key, all with the same rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(r float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(r),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed now, consuming a
// token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	return b.AllowN(l.nowFunc(), 1)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// Tool names served by the MCP server.
const (
	ToolStatus   = "pixelplant_status"
	ToolMessage  = "pixelplant_message"
	ToolFeedback = "pixelplant_feedback"
	ToolObserve  = "pixelplant_observe"
)

// NewToolLimiters creates the default set of per-tool rate limiters.
// Observations arrive at sensor cadence, so they get the widest bucket.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolStatus:   NewLimiter(1.0, 10),      // 60/minute, burst 10
		ToolMessage:  NewLimiter(12.0/60.0, 3), // 12/minute, burst 3
		ToolFeedback: NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		ToolObserve:  NewLimiter(10.0, 20),     // 600/minute, burst 20
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil // No limiter configured = no limit
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
