package httpmiddleware

import (
	"testing"
	"time"
)

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(60)
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		if !l.allow("10.0.0.1", now) {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	if l.allow("10.0.0.1", now) {
		t.Error("request over burst was allowed")
	}

	// a different client has its own bucket
	if !l.allow("10.0.0.2", now) {
		t.Error("fresh client was denied")
	}

	// one second refills one token at 60/min
	if !l.allow("10.0.0.1", now.Add(time.Second)) {
		t.Error("refilled request was denied")
	}
	if l.allow("10.0.0.1", now.Add(time.Second)) {
		t.Error("second request after single-token refill was allowed")
	}
}

func TestIPRateLimiterSweep(t *testing.T) {
	l := NewIPRateLimiter(60)
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	l.swept = now

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now.Add(11*time.Minute))

	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Error("idle bucket survived the sweep")
	}
	if _, ok := l.clients["10.0.0.2"]; !ok {
		t.Error("active bucket was swept")
	}
}
