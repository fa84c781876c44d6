package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ThrottleConfig limits how often one client may hit a route.
type ThrottleConfig struct {
	// Limit is the number of requests allowed per Window. Zero disables
	// throttling.
	Limit  int
	Window time.Duration
	// Key identifies the client. Defaults to ClientIP.
	Key func(*http.Request) string
}

type bucket struct {
	start time.Time
	count int
}

// Throttler counts requests per client in fixed windows.
type Throttler struct {
	cfg ThrottleConfig
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewThrottler creates a Throttler. Call Sweep periodically, or run
// RunSweeper, to drop idle clients.
func NewThrottler(cfg ThrottleConfig) *Throttler {
	if cfg.Key == nil {
		cfg.Key = ClientIP
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Throttler{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// take records one request for key. It returns the requests left in the
// window, when the window resets and whether the request may proceed.
func (t *Throttler) take(key string) (int, time.Time, bool) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok || now.Sub(b.start) >= t.cfg.Window {
		b = &bucket{start: now}
		t.buckets[key] = b
	}
	reset := b.start.Add(t.cfg.Window)
	if b.count >= t.cfg.Limit {
		return 0, reset, false
	}
	b.count++
	return t.cfg.Limit - b.count, reset, true
}

// Sweep removes clients whose window has expired.
func (t *Throttler) Sweep() {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, b := range t.buckets {
		if now.Sub(b.start) >= t.cfg.Window {
			delete(t.buckets, key)
		}
	}
}

// RunSweeper calls Sweep once per window until ctx is done.
func (t *Throttler) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (t *Throttler) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if t.cfg.Limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			left, reset, ok := t.take(t.cfg.Key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(t.cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(int(reset.Sub(t.now()).Seconds()+0.999), 1)
				h.Set("Retry-After", strconv.Itoa(wait))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For address, falling back to the
// connection's remote host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
