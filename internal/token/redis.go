package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry keeps the revocation set in Redis so every instance of
// the server sees the same state. Entries expire together with the
// token's own validity window, keeping the set from growing without
// bound.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRegistry connects to the given Redis URL
// (e.g. redis://localhost:6379/0) and verifies the connection.
// ttl should be at least the token expiry window.
func NewRedisRegistry(url string, ttl time.Duration) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisRegistry{
		client: client,
		prefix: "revoked:",
		ttl:    ttl,
	}, nil
}

// key hashes the token so raw session tokens never appear in Redis.
func (r *RedisRegistry) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key(token), "1", r.ttl).Err()
}

// Close releases the underlying Redis connection pool.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
