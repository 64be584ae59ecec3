// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// attempts holds the recent request times of one client on one endpoint,
// oldest first.
type attempts struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before cutoff.
func (a *attempts) prune(cutoff time.Time) {
	i := 0
	for i < len(a.times) && !a.times[i].After(cutoff) {
		i++
	}
	a.times = a.times[i:]
}

// RateLimiter throttles the credential endpoints (login, register, password
// recovery and reset, password change). Each client IP gets its own budget
// per endpoint path, counted over a sliding window, so a burst of failed
// logins does not also lock the client out of password recovery.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*attempts
	limit   int
	window  time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// NewRateLimiter allows limit requests per client and path within window.
// Idle buckets are swept once per window until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	sweep := window
	if sweep < time.Minute {
		sweep = time.Minute
	}
	go func() {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopped.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) bucket(key string) *attempts {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &attempts{}
		rl.buckets[key] = b
	}
	return b
}

// take records an attempt for key. When the budget is spent it records
// nothing and returns how long until the oldest attempt leaves the window.
func (rl *RateLimiter) take(key string) (retryAfter time.Duration, ok bool) {
	now := rl.now()
	b := rl.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now.Add(-rl.window))

	if len(b.times) >= rl.limit {
		return b.times[0].Add(rl.window).Sub(now), false
	}
	b.times = append(b.times, now)
	return 0, true
}

// cleanup forgets clients with no attempt inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		b.prune(cutoff)
		idle := len(b.times) == 0
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
		}
	}
}

// Middleware answers 429 with a Retry-After in whole seconds once the
// client has used its budget for the requested path.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		wait, ok := rl.take(ip + " " + r.URL.Path)
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			if secs < 1 {
				secs = 1
			}
			slog.Warn("credential endpoint throttled", "ip", ip, "path", r.URL.Path, "retry_after", secs)
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
