package metadata

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Memory is an in-process registry for development and tests.
type Memory struct {
	mu     sync.RWMutex
	tokens map[solana.PublicKey]Token
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[solana.PublicKey]Token)}
}

func (m *Memory) Create(_ context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token.Mint]; ok {
		return ErrConflict
	}
	token.Mutable = !token.UpdateAuthority.IsZero()
	m.tokens[token.Mint] = token
	return nil
}

func (m *Memory) Update(_ context.Context, mint solana.PublicKey, name, symbol, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[mint]
	if !ok {
		return ErrNotFound
	}
	if t.UpdateAuthority.IsZero() {
		return ErrRevoked
	}
	t.Name, t.Symbol, t.URI = name, symbol, uri
	m.tokens[mint] = t
	return nil
}

func (m *Memory) ClearUpdateAuthority(_ context.Context, mint solana.PublicKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[mint]
	if !ok {
		return ErrNotFound
	}
	t.UpdateAuthority = solana.PublicKey{}
	t.Mutable = false
	m.tokens[mint] = t
	return nil
}

func (m *Memory) Get(_ context.Context, mint solana.PublicKey) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}
