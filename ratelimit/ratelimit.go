// Package ratelimit provides independently configurable fixed-window
// request limiters backed by a shared counter store.
//
// Limiters fail open: if the counter store errors, the request is
// allowed and a warning is logged. Availability of the feedback
// endpoint is worth more than strict enforcement, and the backing
// increment is atomic so the limit is exact whenever the store is
// reachable.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bugrelay/bugrelay/store"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Remaining int64
	// RetryAfter is the whole-second wait to advertise on denial,
	// rounded up from the window length.
	RetryAfter int
	// Skipped is true when no store is configured or the store failed
	// and the limiter let the request through unchecked.
	Skipped bool
}

// Limiter enforces at most Max requests per fixed window per key.
// A nil store disables the limiter entirely.
type Limiter struct {
	store  store.CounterStore
	name   string
	window time.Duration
	max    int64
	logger *slog.Logger
}

func New(st store.CounterStore, name string, window time.Duration, max int64, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: st, name: name, window: window, max: max, logger: logger}
}

// Check counts the request against key's current window. The counter
// key embeds the window start, so all timestamps inside one window
// share a counter and the count resets sharply at each boundary.
func (l *Limiter) Check(ctx context.Context, key string, now time.Time) Result {
	if l == nil || l.store == nil {
		return Result{Allowed: true, Skipped: true}
	}

	windowStart := now.UnixMilli() / l.window.Milliseconds()
	counterKey := l.name + ":" + key + ":" + strconv.FormatInt(windowStart, 10)

	count, err := l.store.Increment(ctx, counterKey, l.window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, failing open",
			"limiter", l.name, "error", err)
		return Result{Allowed: true, Skipped: true}
	}

	retryAfter := int((l.window + time.Second - 1) / time.Second)
	if count > l.max {
		return Result{Allowed: false, RetryAfter: retryAfter}
	}
	return Result{Allowed: true, Remaining: l.max - count, RetryAfter: retryAfter}
}

// ClientID resolves the identity a per-client limiter keys on: the
// connecting address when the listener saw one, else the first entry
// of a forwarded-address chain. Unidentifiable clients share one
// bucket rather than bypassing limiting.
func ClientID(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return "unknown"
}
