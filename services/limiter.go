package services

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter hands out one token bucket per key (wallet, user id).
type KeyedLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewKeyedLimiter(r rate.Limit, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Allow consumes a token for key.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	limiter, exists := kl.limiters[key]
	if !exists {
		// crude bound on memory; buckets refill quickly anyway
		if len(kl.limiters) > 10000 {
			kl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(kl.rate, kl.burst)
		kl.limiters[key] = limiter
	}
	kl.mu.Unlock()
	return limiter.Allow()
}
