package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{MessagesPerMinute: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("sender1") {
			t.Fatalf("message %d should be allowed", i+1)
		}
	}
	if rl.Allow("sender1") {
		t.Error("message 4 should be rejected")
	}
}

func TestLimiter_PerSender(t *testing.T) {
	rl := NewLimiter(Config{MessagesPerMinute: 1})
	defer rl.Stop()

	if !rl.Allow("a") {
		t.Error("first message from a should be allowed")
	}
	if !rl.Allow("b") {
		t.Error("first message from b should be allowed")
	}
	if rl.Allow("a") {
		t.Error("second message from a should be rejected")
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	rl := NewLimiter(Config{MessagesPerMinute: 1})
	defer rl.Stop()

	rl.Allow("a")

	// Age the entry past the window.
	rl.mu.Lock()
	rl.senders["a"].lastMessage = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("a") {
		t.Error("message after window reset should be allowed")
	}
}

func TestLimiter_DefaultConfig(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	for i := 0; i < DefaultConfig().MessagesPerMinute; i++ {
		if !rl.Allow("a") {
			t.Fatalf("message %d should be allowed with default limit", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("message over the default limit should be rejected")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{MessagesPerMinute: 10})
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.Allow(fmt.Sprintf("sender%d", i))
	}
	if got := rl.ActiveSenders(); got != 5 {
		t.Fatalf("ActiveSenders() = %d, want 5", got)
	}

	rl.mu.Lock()
	for _, sender := range rl.senders {
		sender.lastMessage = time.Now().Add(-time.Hour)
	}
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if got := rl.ActiveSenders(); got != 0 {
		t.Errorf("ActiveSenders() = %d, want 0 after cleanup", got)
	}
}
