package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

const defaultMaxSize = 10000

// MemoryCache keeps prefixes in a bounded in-process LRU.
type MemoryCache struct {
	cache *lru.Cache
}

// NewMemoryCache creates a MemoryCache holding up to maxSize guilds.
func NewMemoryCache(maxSize int) (*MemoryCache, error) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCache{cache: cache}, nil
}

// Get returns the cached prefix of a guild.
func (c *MemoryCache) Get(_ context.Context, guildID string) (string, bool) {
	v, ok := c.cache.Get(guildID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set stores the prefix of a guild.
func (c *MemoryCache) Set(_ context.Context, guildID, value string) error {
	c.cache.Add(guildID, value)
	return nil
}

// Delete drops the cached prefix of a guild.
func (c *MemoryCache) Delete(_ context.Context, guildID string) error {
	c.cache.Remove(guildID)
	return nil
}

// Len reports the number of cached guilds.
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.cache.Purge()
	return nil
}
