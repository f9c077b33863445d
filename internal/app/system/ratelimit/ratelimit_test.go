package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_WindowAndReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("keys are counted separately")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("a") {
		t.Error("a new window should allow again")
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}

	l.Reset("a")
	if got := l.Remaining("a"); got != 2 {
		t.Errorf("after Reset Remaining = %d, want 2", got)
	}
}

func TestLimiter_PrunesExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(time.Hour)
	for i := 0; i < pruneEvery; i++ {
		l.Allow("fresh")
	}
	l.mu.Lock()
	_, ok := l.windows["old"]
	l.mu.Unlock()
	if ok {
		t.Error("expired window should have been pruned")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:443", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:443", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.9:5123", "192.0.2.9"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d refused", i+1)
		}
	}
	ok, reason := ll.Check(r, "ada@example.com")
	if ok || reason == "" {
		t.Fatal("third attempt for the same account should be refused")
	}

	ll.ResetEmail("ADA@example.com")
	if ok, _ := ll.Check(r, "ada@example.com"); !ok {
		t.Error("ResetEmail should clear the account count")
	}

	ipOnly := NewLoginLimiterWithConfig(1, time.Minute, 100, time.Minute)
	ipOnly.Check(r, "")
	if ok, _ := ipOnly.Check(r, ""); ok {
		t.Error("second attempt from the same IP should be refused")
	}
}
