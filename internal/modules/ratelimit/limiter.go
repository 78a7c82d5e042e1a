// README: Sliding-window admission control, one limiter per endpoint class.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// WindowStore records admission timestamps per client key. Take must be
// atomic per key: when two concurrent requests race for the last slot only
// one may be admitted.
type WindowStore interface {
	// Take admits and records now iff fewer than max timestamps fall inside
	// the trailing window. On rejection it reports how long until the oldest
	// retained timestamp leaves the window.
	Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (allowed bool, retryAfter time.Duration, err error)
}

// Limiter is a named sliding-window rate limiter. Two independently
// configured instances exist in the gateway (job creation and direct
// generation); they never share window state.
type Limiter struct {
	Name   string
	Max    int
	Window time.Duration

	store WindowStore
	now   func() time.Time
}

func NewLimiter(name string, store WindowStore, max int, window time.Duration) *Limiter {
	return &Limiter{Name: name, Max: max, Window: window, store: store, now: time.Now}
}

// SetClock overrides the limiter's clock. Test hook.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Admit checks and records a request for clientID in one atomic step.
func (l *Limiter) Admit(ctx context.Context, clientID string) (bool, time.Duration, error) {
	return l.AdmitAt(ctx, clientID, l.now())
}

// AdmitAt is Admit with an explicit timestamp.
func (l *Limiter) AdmitAt(ctx context.Context, clientID string, now time.Time) (bool, time.Duration, error) {
	return l.store.Take(ctx, clientID, now, l.Window, l.Max)
}

// ClientID derives the rate-limit key for a request. The gateway sits behind
// a reverse proxy, so the left-most non-empty X-Forwarded-For entry wins,
// then X-Real-Ip, then the connection address.
func ClientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if p := strings.TrimSpace(part); p != "" {
				return p
			}
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
