// Package cache provides an optional redis read-through for the identity
// graph's group lookups. Staleness here is a security bug, not a performance
// nuisance: every group-membership mutation must invalidate before the
// mutator's response is returned.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const groupSetTTL = 24 * time.Hour

// sentinel member so an empty group set is still a cache hit.
const emptyMarker = "-"

// IdentityCache caches a user's group IDs in a redis set. It implements
// repository.GroupLister over the postgres repository.
type IdentityCache struct {
	client *redis.Client
	src    repository.GroupLister
	log    zerolog.Logger
}

func NewIdentityCache(client *redis.Client, src repository.GroupLister, log zerolog.Logger) *IdentityCache {
	return &IdentityCache{client: client, src: src, log: log}
}

func groupsKey(userID uuid.UUID) string {
	return fmt.Sprintf("identity:%s:groups", userID)
}

func (c *IdentityCache) GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	key := groupsKey(userID)

	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		// Degrade to the source on cache failure; never fail a resolution
		// because redis is down.
		c.log.Warn().Err(err).Str("user_id", userID.String()).Msg("identity cache read failed")
		return c.src.GroupIDsByUser(ctx, userID)
	}

	if len(members) > 0 {
		c.client.Expire(ctx, key, groupSetTTL)
		ids := make([]uuid.UUID, 0, len(members))
		for _, m := range members {
			if m == emptyMarker {
				continue
			}
			id, err := uuid.Parse(m)
			if err != nil {
				c.log.Warn().Str("member", m).Msg("invalid uuid in identity cache")
				continue
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	ids, err := c.src.GroupIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(ids)+1)
	values = append(values, emptyMarker)
	for _, id := range ids {
		values = append(values, id.String())
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, values...)
	pipe.Expire(ctx, key, groupSetTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Msg("identity cache store failed")
	}
	return ids, nil
}

// Invalidate drops the cached group set for a user. Called inside every
// group-membership mutation, before the caller's response is returned.
func (c *IdentityCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, groupsKey(userID)).Err()
}
