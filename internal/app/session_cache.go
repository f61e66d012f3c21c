/**
 * @description
 * Redis-backed session cache and logout denylist. The cache is a warm
 * start only: the staffs row stays authoritative and entries expire on
 * their own, while mutations that change a principal's role or KYC status
 * drop the entry explicitly.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexapay/ambassador-service/internal/domain"
)

const defaultSessionTTL = 10 * time.Minute

// RedisSessionCache implements SessionCache on a shared redis instance.
type RedisSessionCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSessionCache(client redis.UniversalClient, ttl time.Duration) *RedisSessionCache {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionCache{client: client, ttl: ttl}
}

func sessionKey(uid uuid.UUID) string { return "session:" + uid.String() }
func denylistKey(jti string) string   { return "token_denylist:" + jti }

// Get returns the cached session or (nil, nil) on a miss.
func (c *RedisSessionCache) Get(ctx context.Context, uid uuid.UUID) (*domain.Session, error) {
	raw, err := c.client.Get(ctx, sessionKey(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// A corrupt entry is treated as a miss so the DB repopulates it.
		return nil, nil
	}
	return &session, nil
}

func (c *RedisSessionCache) Set(ctx context.Context, session *domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(session.UID), raw, c.ttl).Err()
}

func (c *RedisSessionCache) Delete(ctx context.Context, uid uuid.UUID) error {
	return c.client.Del(ctx, sessionKey(uid)).Err()
}

// Revoke denylists a token jti for its remaining validity.
func (c *RedisSessionCache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, denylistKey(jti), "1", ttl).Err()
}

func (c *RedisSessionCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
