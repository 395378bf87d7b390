package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound is returned when the user has no active session
var ErrSessionNotFound = errors.New("session not found")

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// SaveSession stores the user's current access token, replacing any earlier
// one. Only one session per user is active at a time.
func (c *Cache) SaveSession(ctx context.Context, userID int64, token string) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Set(ctx, c.namespaceKey(sessionKey(userID)), token, c.sessionTTL).Err()
}

// GetSession returns the user's active access token
func (c *Cache) GetSession(ctx context.Context, userID int64) (string, error) {
	if !c.enabled() {
		return "", ErrCacheDisabled
	}
	token, err := c.client.Get(ctx, c.namespaceKey(sessionKey(userID))).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return token, err
}

// ExtendSession pushes the session expiry out by the session TTL
func (c *Cache) ExtendSession(ctx context.Context, userID int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	ok, err := c.client.Expire(ctx, c.namespaceKey(sessionKey(userID)), c.sessionTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession ends the user's session
func (c *Cache) DeleteSession(ctx context.Context, userID int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, c.namespaceKey(sessionKey(userID))).Err()
}
