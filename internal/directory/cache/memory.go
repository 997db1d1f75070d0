package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memory caches the lookup map in process. Concurrent rebuilds after expiry
// are collapsed into one loader call via singleflight.
type Memory struct {
	loader Loader
	ttl    time.Duration

	group   singleflight.Group
	mu      sync.RWMutex
	data    map[string]string
	expires time.Time
}

func NewMemory(loader Loader, ttl time.Duration) *Memory {
	return &Memory{loader: loader, ttl: ttl}
}

func (c *Memory) Names(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	if c.data != nil && time.Now().Before(c.expires) {
		data := c.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("names", func() (any, error) {
		data, err := c.loader(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.data = data
		c.expires = time.Now().Add(c.ttl)
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (c *Memory) Invalidate(context.Context) error {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
	return nil
}
