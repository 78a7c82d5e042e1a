// README: Sliding-window limiter tests (window math, client id, pruning).
package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestAdmitUpToMax(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter("jobs", NewMemoryStore(), 3, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed, _, err := l.AdmitAt(ctx, "c1", base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d should be admitted", i)
		}
	}
	allowed, retryAfter, err := l.AdmitAt(ctx, "c1", base.Add(3*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Fatal("request over the limit was admitted")
	}
	// oldest timestamp leaves the window at base+60s, so 57s remain
	if want := 57 * time.Second; retryAfter != want {
		t.Fatalf("retryAfter = %v, want %v", retryAfter, want)
	}
}

func TestRejectionDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter("jobs", NewMemoryStore(), 1, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if allowed, _, _ := l.AdmitAt(ctx, "c1", base); !allowed {
		t.Fatal("first request rejected")
	}
	// rejected attempts must not extend the window
	for i := 1; i <= 5; i++ {
		if allowed, _, _ := l.AdmitAt(ctx, "c1", base.Add(time.Duration(i)*time.Second)); allowed {
			t.Fatalf("attempt %d admitted while window full", i)
		}
	}
	if allowed, _, _ := l.AdmitAt(ctx, "c1", base.Add(61*time.Second)); !allowed {
		t.Fatal("request after window elapsed was rejected")
	}
}

func TestWindowSlides(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter("jobs", NewMemoryStore(), 2, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.AdmitAt(ctx, "c1", base)
	l.AdmitAt(ctx, "c1", base.Add(30*time.Second))
	if allowed, _, _ := l.AdmitAt(ctx, "c1", base.Add(45*time.Second)); allowed {
		t.Fatal("window full, should reject")
	}
	// first timestamp slides out at base+60s
	if allowed, _, _ := l.AdmitAt(ctx, "c1", base.Add(61*time.Second)); !allowed {
		t.Fatal("slot freed by sliding window was not granted")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter("jobs", NewMemoryStore(), 1, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.AdmitAt(ctx, "c1", base)
	if allowed, _, _ := l.AdmitAt(ctx, "c2", base); !allowed {
		t.Fatal("second client rejected by first client's window")
	}
}

func TestLimitersAreIndependent(t *testing.T) {
	ctx := context.Background()
	jobs := NewLimiter("jobs", NewMemoryStore(), 1, time.Minute)
	gen := NewLimiter("generate", NewMemoryStore(), 1, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	jobs.AdmitAt(ctx, "c1", base)
	if allowed, _, _ := gen.AdmitAt(ctx, "c1", base); !allowed {
		t.Fatal("limiters share window state")
	}
}

func TestClientIDPrecedence(t *testing.T) {
	newReq := func(xff, xri, remote string) *http.Request {
		r, _ := http.NewRequest(http.MethodPost, "/jobs/itinerary", nil)
		if xff != "" {
			r.Header.Set("X-Forwarded-For", xff)
		}
		if xri != "" {
			r.Header.Set("X-Real-Ip", xri)
		}
		r.RemoteAddr = remote
		return r
	}

	if got := ClientID(newReq("203.0.113.7, 10.0.0.1", "198.51.100.2", "192.0.2.1:4567")); got != "203.0.113.7" {
		t.Fatalf("xff leftmost: got %q", got)
	}
	if got := ClientID(newReq(" , 10.0.0.1", "", "192.0.2.1:4567")); got != "10.0.0.1" {
		t.Fatalf("xff skips empty entries: got %q", got)
	}
	if got := ClientID(newReq("", "198.51.100.2", "192.0.2.1:4567")); got != "198.51.100.2" {
		t.Fatalf("x-real-ip fallback: got %q", got)
	}
	if got := ClientID(newReq("", "", "192.0.2.1:4567")); got != "192.0.2.1" {
		t.Fatalf("remote addr fallback: got %q", got)
	}
	if got := ClientID(newReq("", "", "")); got != "unknown" {
		t.Fatalf("missing everything: got %q", got)
	}
}

func TestSweepEvictsIdleClients(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := NewLimiter("jobs", store, 5, time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, c := range []string{"a", "b", "c"} {
		l.AdmitAt(ctx, c, base)
	}
	l.AdmitAt(ctx, "fresh", base.Add(150*time.Second))

	evicted := store.Sweep(base.Add(3*time.Minute), time.Minute)
	if evicted != 3 {
		t.Fatalf("evicted = %d, want 3", evicted)
	}
	if store.Len() != 1 {
		t.Fatalf("tracked clients = %d, want 1", store.Len())
	}
}
