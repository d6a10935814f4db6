package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yifanzhou/storyshare/model"
)

// ProfileCache caches author profiles between snapshot ticks so the
// projector doesn't do one point lookup per story per tick. Staleness is
// acceptable: a profile edit publishes a change event that clears the entry.
type ProfileCache interface {
	Get(userID string) (*model.Profile, bool)
	Set(profile *model.Profile)
	Invalidate(userID string)
}

// MemoryProfileCache is a plain in-process map cache, used in tests and as
// the default when no redis is configured.
type MemoryProfileCache struct {
	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

func NewMemoryProfileCache() *MemoryProfileCache {
	return &MemoryProfileCache{profiles: make(map[string]*model.Profile)}
}

func (c *MemoryProfileCache) Get(userID string) (*model.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[userID]
	return p, ok
}

func (c *MemoryProfileCache) Set(profile *model.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[profile.UserID] = profile
}

func (c *MemoryProfileCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, userID)
}

const redisProfileTTL = 10 * time.Minute

// RedisProfileCache shares cached profiles across server instances.
type RedisProfileCache struct {
	inner *redis.Client
}

var ctx = context.Background()

func NewRedisProfileCache() (*RedisProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RedisProfileCache{inner: client}, nil
}

func profileKey(userID string) string {
	return "profile__" + userID
}

func (c *RedisProfileCache) Get(userID string) (*model.Profile, bool) {
	raw, err := c.inner.Get(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var profile model.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (c *RedisProfileCache) Set(profile *model.Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	c.inner.Set(ctx, profileKey(profile.UserID), raw, redisProfileTTL)
}

func (c *RedisProfileCache) Invalidate(userID string) {
	c.inner.Del(ctx, profileKey(userID))
}
