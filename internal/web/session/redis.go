package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
)

// RedisStateStore keeps pending attempts in redis. Consume uses GETDEL and is atomic
// across instances.
type RedisStateStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStateStore returns a store using client. Keys are prefixed with prefix.
func NewRedisStateStore(client redis.Cmdable, prefix string) *RedisStateStore {
	if prefix != "" {
		prefix += ":"
	}

	return &RedisStateStore{client: client, prefix: prefix + AttemptKeyPrefix}
}

// Save implements auth.StateStore.
func (s *RedisStateStore) Save(ctx context.Context, sessionID string, attempt *auth.PendingAuthAttempt, ttl time.Duration) error {
	out, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.key(sessionID), out, ttl).Err()
}

// Load implements auth.StateStore.
func (s *RedisStateStore) Load(ctx context.Context, sessionID string) (*auth.PendingAuthAttempt, error) {
	return s.result(s.client.Get(ctx, s.key(sessionID)))
}

// Consume implements auth.StateStore.
func (s *RedisStateStore) Consume(ctx context.Context, sessionID string) (*auth.PendingAuthAttempt, error) {
	return s.result(s.client.GetDel(ctx, s.key(sessionID)))
}

// Delete implements auth.StateStore.
func (s *RedisStateStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisStateStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStateStore) result(cmd *redis.StringCmd) (*auth.PendingAuthAttempt, error) {
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return decodeAttempt(raw)
}
