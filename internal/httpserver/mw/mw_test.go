package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, configure func(r *http.Request)) int {
	r := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	if configure != nil {
		configure(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"localhost:7878", "localhost:7878", true},
		{"localhost:7878", "localhost:*", true},
		{"localhost", "localhost:*", true},
		{"localhost:7878", "localhost", false},
		{"[::1]:7878", "[::1]:*", true},
		{"marks.example.com", "*.example.com", true},
		{"marks.example.com:443", "*.example.com:*", true},
		{"example.org", "*.example.com", false},
		{"evil.com:7878", "localhost:*", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"LOCALHOST:*"}, logger.Nop())(ok)

	if code := serve(h, func(r *http.Request) { r.Host = "localhost:7878" }); code != http.StatusNoContent {
		t.Errorf("allowed host got %d", code)
	}
	if code := serve(h, func(r *http.Request) { r.Host = "attacker.test" }); code != http.StatusForbidden {
		t.Errorf("foreign host got %d, want 403", code)
	}

	pass := EnforceHost(nil, logger.Nop())(ok)
	if code := serve(pass, func(r *http.Request) { r.Host = "anything" }); code != http.StatusNoContent {
		t.Errorf("passthrough got %d", code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"127.0.0.0/8"}, true, logger.Nop())(ok)

	if code := serve(h, func(r *http.Request) { r.RemoteAddr = "127.0.0.1:5000" }); code != http.StatusNoContent {
		t.Errorf("loopback got %d", code)
	}
	if code := serve(h, func(r *http.Request) { r.RemoteAddr = "192.0.2.1:5000" }); code != http.StatusForbidden {
		t.Errorf("outside range got %d, want 403", code)
	}
	// Proxy header wins when trusted.
	code := serve(h, func(r *http.Request) {
		r.RemoteAddr = "127.0.0.1:5000"
		r.Header.Set("X-Forwarded-For", "192.0.2.1")
	})
	if code != http.StatusForbidden {
		t.Errorf("forwarded outside range got %d, want 403", code)
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(ok)

	remote := func(r *http.Request) { r.RemoteAddr = "10.0.0.1:1" }
	for i := 0; i < 2; i++ {
		if code := serve(h, remote); code != http.StatusNoContent {
			t.Fatalf("request %d got %d", i, code)
		}
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}

	// Another client has its own bucket.
	if code := serve(h, func(r *http.Request) { r.RemoteAddr = "10.0.0.2:1" }); code != http.StatusNoContent {
		t.Errorf("second client got %d", code)
	}

	// One token refills per second.
	now = now.Add(time.Second)
	if code := serve(h, remote); code != http.StatusNoContent {
		t.Errorf("after refill got %d", code)
	}
}
