package cache

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local cache. Entries are evicted by LRU, by maxTTL,
// and by their own TTL on read.
type Memory struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewMemory creates an in-process cache holding up to size entries.
// maxTTL bounds every entry's lifetime regardless of the TTL passed to Set.
func NewMemory(size int, maxTTL time.Duration) *Memory {
	if size <= 0 {
		size = 10_000
	}
	return &Memory{
		lru: expirable.NewLRU[string, entry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns the value and whether it was present and unexpired.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value with ttl. ttl <= 0 relies on maxTTL only.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Invalidate deletes key, or every key matching a glob pattern containing '*'.
func (c *Memory) Invalidate(_ context.Context, pattern string) error {
	if !strings.Contains(pattern, "*") {
		c.lru.Remove(pattern)
		return nil
	}
	for _, k := range c.lru.Keys() {
		if ok, err := path.Match(pattern, k); err == nil && ok {
			c.lru.Remove(k)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (c *Memory) Len() int { return c.lru.Len() }
