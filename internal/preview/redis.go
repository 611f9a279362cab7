package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "preview_token:"

// RedisRegistry is a Registry backed by a shared Redis instance, for
// deployments with more than one API process. Redis evicts expired keys
// itself, so an expired token is indistinguishable from an unknown one and
// resolves to ErrTokenNotFound.
type RedisRegistry struct {
	client *redis.Client
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a RedisRegistry on an existing client.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Issue stores the grant as JSON under a TTL'd key.
func (r *RedisRegistry) Issue(ctx context.Context, grant Grant, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(grant)
	if err != nil {
		return "", fmt.Errorf("failed to marshal grant: %w", err)
	}

	if err := r.client.Set(ctx, tokenKeyPrefix+token, payload, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store preview token: %w", err)
	}

	return token, nil
}

// Resolve returns the grant for a live token.
func (r *RedisRegistry) Resolve(ctx context.Context, token string) (*Grant, error) {
	payload, err := r.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preview token: %w", err)
	}

	var grant Grant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grant: %w", err)
	}

	return &grant, nil
}
