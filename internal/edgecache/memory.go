package edgecache

import (
	"context"
	"sync"
	"sync/atomic"
)

const memoryShardCount = 16

// NewMemory 构建进程内缓存，maxEntries <= 0 表示不限制条目数。
func NewMemory(maxEntries int) Cache {
	perShard := 0
	if maxEntries > 0 {
		perShard = (maxEntries + memoryShardCount - 1) / memoryShardCount
	}
	c := &memoryCache{perShard: perShard}
	for i := range c.shards {
		c.shards[i] = &memoryShard{entries: make(map[string]Response)}
	}
	return c
}

// memoryCache 通过 xxhash 将 Key 分散到多个分片，降低锁竞争。
type memoryCache struct {
	shards   [memoryShardCount]*memoryShard
	perShard int
	closed   atomic.Bool
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]Response
}

func (c *memoryCache) shard(key Key) *memoryShard {
	return c.shards[key.sum()%memoryShardCount]
}

func (c *memoryCache) Match(ctx context.Context, key Key) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}

	s := c.shard(key)
	s.mu.RLock()
	stored, ok := s.entries[key.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := stored.Clone()
	return &out, nil
}

func (c *memoryCache) Put(ctx context.Context, key Key, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrClosed
	}

	id := key.String()
	stored := resp.Clone()

	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; !exists && c.perShard > 0 && len(s.entries) >= c.perShard {
		// 分片已满时随机淘汰一个条目，map 迭代顺序本身即随机。
		for victim := range s.entries {
			delete(s.entries, victim)
			break
		}
	}
	s.entries[id] = stored
	return nil
}

func (c *memoryCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

func (c *memoryCache) Close() error {
	c.closed.Store(true)
	return nil
}
