package ratelimit

import (
	"sync"
	"time"
)

// Actions the messaging service throttles per participant.
const (
	ActionCreateConversation = "create_conversation"
	ActionSendMessage        = "send_message"
)

// TokenBucket is a refillable bucket guarding one participant+action pair.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

// RateLimiter manages buckets keyed by participant and action.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
	}
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available, otherwise reports how long the
// caller must wait.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()

	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate

	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	nextRefill := tb.lastRefill.Add(tb.refillTime)
	return false, nextRefill.Sub(now)
}

func (tb *TokenBucket) lastRefillTime() time.Time {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.lastRefill
}

// Allow checks whether participantKey may perform action.
func (rl *RateLimiter) Allow(participantKey, action string) (bool, time.Duration) {
	key := participantKey + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			switch action {
			case ActionSendMessage:
				// 20 messages per minute
				bucket = NewTokenBucket(20, 1, 3*time.Second)
			case ActionCreateConversation:
				// 10 new threads per hour
				bucket = NewTokenBucket(10, 1, 6*time.Minute)
			default:
				bucket = NewTokenBucket(20, 1, 3*time.Second)
			}
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

// Cleanup drops buckets idle for over an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		// Allow mutates lastRefill under the bucket's own mutex.
		if now.Sub(bucket.lastRefillTime()) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine periodically evicts idle buckets.
func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			rl.Cleanup()
		}
	}()
}
