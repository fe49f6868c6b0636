// Package ratelimit throttles inbound messages per sender.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter provides rate limiting functionality
type Limiter struct {
	mu           sync.Mutex
	senders      map[string]*senderInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	messagesPerMinute int
	cleanupInterval   time.Duration
}

type senderInfo struct {
	lastMessage time.Time
	messages    int
}

// Config holds rate limiter configuration
type Config struct {
	MessagesPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MessagesPerMinute: 20,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.MessagesPerMinute <= 0 {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &Limiter{
		senders:           make(map[string]*senderInfo),
		stopCleanup:       make(chan struct{}),
		messagesPerMinute: config.MessagesPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go rl.startCleanup()
	return rl
}

// Allow checks if a message from the given sender should be handled
func (rl *Limiter) Allow(senderID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	sender, exists := rl.senders[senderID]

	if !exists {
		rl.senders[senderID] = &senderInfo{
			lastMessage: now,
			messages:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(sender.lastMessage) > time.Minute {
		sender.messages = 1
		sender.lastMessage = now
		return true
	}

	sender.messages++
	sender.lastMessage = now

	return sender.messages <= rl.messagesPerMinute
}

// startCleanup runs periodic cleanup to remove stale sender entries
func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes sender entries older than 10 minutes
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for id, sender := range rl.senders {
		if sender.lastMessage.Before(cutoff) {
			delete(rl.senders, id)
		}
	}
}

// ActiveSenders returns the number of currently tracked senders
func (rl *Limiter) ActiveSenders() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.senders)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}
