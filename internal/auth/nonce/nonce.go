// Package nonce remembers the jti of every accepted signer token until it
// expires so a captured token cannot be replayed.
package nonce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tollgate/pkg/platform/sentinel"
)

// Store claims a jti once. Claim reports false when the jti was already
// claimed and has not yet expired.
type Store interface {
	Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

func validate(jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("jti is required: %w", sentinel.ErrInvalidState)
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// Memory is a process-local Store. Expired entries are swept on every
// claim.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	if err := validate(jti, ttl); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
		}
	}
	if _, seen := m.entries[jti]; seen {
		return false, nil
	}
	m.entries[jti] = now.Add(ttl)
	return true, nil
}
