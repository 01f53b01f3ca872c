// Package cache provides a Redis read-through cache for brand profiles.
// Profiles are read on every compliance pass, so they are the hottest
// records in the system while changing rarely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brandcraft/pkg/domain"
)

// ProfileLoader is the backing source of truth, usually the Postgres store.
type ProfileLoader interface {
	GetBrandProfile(ctx context.Context, id string) (domain.BrandProfile, bool, error)
}

// ProfileCache fronts a ProfileLoader with Redis. A miss falls through to
// the loader and populates the cache; stale entries are removed with
// Invalidate when a profile is saved.
type ProfileCache struct {
	client *redis.Client
	loader ProfileLoader
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, loader ProfileLoader, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProfileCache{client: client, loader: loader, ttl: ttl}
}

func (c *ProfileCache) key(id string) string {
	return "brandprofile:" + id
}

// Get returns the profile for id, serving from Redis when possible.
// Cache errors are not fatal; the loader result still wins.
func (c *ProfileCache) Get(ctx context.Context, id string) (domain.BrandProfile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == nil {
		var profile domain.BrandProfile
		if uerr := json.Unmarshal(raw, &profile); uerr == nil {
			return profile, true, nil
		}
		// corrupt entry, drop it and fall through to the loader
		_ = c.client.Del(ctx, c.key(id)).Err()
	}

	profile, found, err := c.loader.GetBrandProfile(ctx, id)
	if err != nil {
		return domain.BrandProfile{}, false, fmt.Errorf("load brand profile: %w", err)
	}
	if !found {
		return domain.BrandProfile{}, false, nil
	}
	if data, merr := json.Marshal(profile); merr == nil {
		_ = c.client.Set(ctx, c.key(id), data, c.ttl).Err()
	}
	return profile, true, nil
}

// Invalidate removes the cached copy of id. Call after every profile save.
func (c *ProfileCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("invalidate brand profile cache: %w", err)
	}
	return nil
}
