package auth

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/*
RateLimiter is a token bucket sized in requests per interval. It fronts the
bearer-token validator so a flood of bad tokens cannot turn signature
checks into a CPU sink.
*/
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64 // tokens refilled per second
	capacity float64
	tokens   float64
	last     time.Time
}

func NewRateLimiter(rate int64, interval time.Duration) *RateLimiter {
	if rate <= 0 || interval <= 0 {
		panic("rate and interval must be positive")
	}

	return &RateLimiter{
		rate:     float64(rate) / interval.Seconds(),
		capacity: float64(rate),
		tokens:   float64(rate),
		last:     time.Now(),
	}
}

// Allow consumes one token if available. Refill accrues continuously, so
// capacity returns gradually rather than in whole-interval steps.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.last).Seconds()
	rl.last = now

	rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)

	if rl.tokens < 1.0 {
		log.Debug("rate limiter saturated", "rate", rl.rate)
		return false
	}

	rl.tokens--
	return true
}

// Reset restores the bucket to full capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = rl.capacity
	rl.last = time.Now()
}
