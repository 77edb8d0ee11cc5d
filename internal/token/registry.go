package token

import (
	"context"
	"sync"
)

// Registry tracks revoked token strings. Implementations decide where
// the set lives; the service only cares about membership.
type Registry interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

// MemoryRegistry is a process-local revocation set. A process restart
// empties it, and separate instances do not see each other's
// revocations. That matches single-instance deployments; multi-instance
// setups should use the Redis registry instead.
type MemoryRegistry struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{revoked: make(map[string]struct{})}
}

func (r *MemoryRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[token]
	return ok, nil
}

func (r *MemoryRegistry) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = struct{}{}
	return nil
}
