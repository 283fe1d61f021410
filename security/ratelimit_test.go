package security

import (
	"log/slog"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(1, 2, slog.Default())
	defer rl.Stop()

	if !rl.Allow("alice") {
		t.Error("first request should pass")
	}
	if !rl.Allow("alice") {
		t.Error("second request within burst should pass")
	}
	if rl.Allow("alice") {
		t.Error("request beyond burst should be limited")
	}

	// Other identifiers have their own budget
	if !rl.Allow("bob") {
		t.Error("separate identifier should not share the budget")
	}
}

func TestRateLimiterLRUEviction(t *testing.T) {
	rl := NewRateLimiterWithConfig(1, 1, 2, slog.Default())
	defer rl.Stop()

	rl.Allow("a")
	rl.Allow("b")
	rl.Allow("c") // evicts "a"

	rl.mu.Lock()
	_, hasA := rl.limiters["a"]
	_, hasB := rl.limiters["b"]
	_, hasC := rl.limiters["c"]
	entries := len(rl.limiters)
	rl.mu.Unlock()

	if hasA {
		t.Error("least recently used entry should have been evicted")
	}
	if !hasB || !hasC {
		t.Error("recent entries should survive")
	}
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiterWithConfig(1, 1, 0, slog.Default())
	defer rl.Stop()

	rl.Allow("idle")
	time.Sleep(10 * time.Millisecond)
	rl.Cleanup(time.Millisecond)

	rl.mu.Lock()
	entries := len(rl.limiters)
	rl.mu.Unlock()
	if entries != 0 {
		t.Errorf("idle entries should be removed, have %d", entries)
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, slog.Default())
	rl.Stop()
	rl.Stop()
}
