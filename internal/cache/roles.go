package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/pkg/logging"
)

// noRole marks a cached "not a member" answer, since "" cannot be told apart from a miss
const noRole = "-"

func roleKey(communityID, userID int64) string {
	return fmt.Sprintf("role:%d:%d", communityID, userID)
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("unread:%d", userID)
}

// GetRole returns a cached role. Errors count as a miss.
func (c *Cache) GetRole(ctx context.Context, communityID, userID int64) (models.Role, bool) {
	if !c.enabled() {
		return models.RoleNone, false
	}
	val, err := c.client.Get(ctx, c.namespaceKey(roleKey(communityID, userID))).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.WithComponent("cache").Warn("role lookup failed", zap.Error(err))
		}
		return models.RoleNone, false
	}
	if val == noRole {
		return models.RoleNone, true
	}
	return models.Role(val), true
}

// SetRole caches a resolved role for the role TTL
func (c *Cache) SetRole(ctx context.Context, communityID, userID int64, role models.Role) {
	if !c.enabled() {
		return
	}
	val := string(role)
	if role == models.RoleNone {
		val = noRole
	}
	if err := c.client.Set(ctx, c.namespaceKey(roleKey(communityID, userID)), val, c.roleTTL).Err(); err != nil {
		logging.WithComponent("cache").Warn("role store failed", zap.Error(err))
	}
}

// InvalidateRole drops a cached role
func (c *Cache) InvalidateRole(ctx context.Context, communityID, userID int64) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, c.namespaceKey(roleKey(communityID, userID))).Err(); err != nil {
		logging.WithComponent("cache").Warn("role invalidation failed", zap.Error(err))
	}
}

// incrIfExists only bumps counters that were already rebuilt from the database
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return redis.call("INCR", KEYS[1])
end
return -1
`)

// IncrUnread bumps the unread notification counter of each user that has one
func (c *Cache) IncrUnread(ctx context.Context, userIDs ...int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	for _, id := range userIDs {
		if err := incrIfExists.Run(ctx, c.client, []string{c.namespaceKey(unreadKey(id))}).Err(); err != nil {
			return err
		}
	}
	return nil
}

// GetUnread returns the cached unread counter. ErrNotFound means the counter
// must be rebuilt from the database.
func (c *Cache) GetUnread(ctx context.Context, userID int64) (int64, error) {
	if !c.enabled() {
		return 0, ErrCacheDisabled
	}
	n, err := c.client.Get(ctx, c.namespaceKey(unreadKey(userID))).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	return n, err
}

// SetUnread overwrites the unread counter
func (c *Cache) SetUnread(ctx context.Context, userID, count int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Set(ctx, c.namespaceKey(unreadKey(userID)), count, 0).Err()
}

// ResetUnread drops the unread counter so the next read rebuilds it
func (c *Cache) ResetUnread(ctx context.Context, userID int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, c.namespaceKey(unreadKey(userID))).Err()
}
