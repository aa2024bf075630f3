// Package revocation tracks revoked access tokens by JTI. Entries expire
// with the token they revoke, so the list stays bounded.
package revocation

import (
	"context"
	"sync"
	"time"
)

// List is the token revocation list consulted on every authenticated
// request.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryList keeps revocations in process memory. Suitable for tests and
// single-instance deployments.
type MemoryList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryList() *MemoryList {
	return &MemoryList{entries: make(map[string]time.Time)}
}

func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.RLock()
	expiry, ok := l.entries[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		l.mu.Lock()
		delete(l.entries, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
