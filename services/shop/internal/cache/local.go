package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
)

// Local is an in-process cache used when no redis address is configured.
// Entries expire after the ttl given to NewLocal; the ttl passed to Set is
// ignored.
type Local struct {
	lru *expirable.LRU[string, []byte]
}

func NewLocal(size int, ttl time.Duration) *Local {
	if size <= 0 {
		size = 128
	}
	return &Local{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *Local) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, service.ErrCacheMiss
	}
	return append([]byte(nil), v...), nil
}

func (c *Local) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.lru.Add(key, append([]byte(nil), value...))
	return nil
}

func (c *Local) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}
