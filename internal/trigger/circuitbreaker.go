package trigger

import (
	"sync"
	"time"
)

// circuitBreaker stops the dispatcher from hammering a broken transport.
// After a run of consecutive delivery failures the circuit opens and events
// are dropped without a delivery attempt until the cooldown passes.
type circuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	open      bool
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &circuitBreaker{threshold: threshold, cooldown: cooldown}
}

// allow reports whether a delivery attempt may proceed. An expired cooldown
// closes the circuit again, letting the next attempt probe the transport.
func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.open {
		return true
	}
	if time.Now().After(cb.openUntil) {
		cb.open = false
		cb.failures = 0
		return true
	}
	return false
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.open = false
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.open = true
		cb.openUntil = time.Now().Add(cb.cooldown)
	}
}

func (cb *circuitBreaker) isOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}
