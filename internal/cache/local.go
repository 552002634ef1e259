package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// localItem wraps a cached value with its expiry time. The LRU itself
// has no TTL notion, so expiry is checked on read.
type localItem struct {
	data      []byte
	expiresAt time.Time
}

// LocalBackend is an in-process LRU backend for a cache region.
type LocalBackend struct {
	mu  sync.Mutex
	lru *lru.Cache[string, localItem]
}

// NewLocalBackend creates an in-process backend bounded to size entries.
func NewLocalBackend(size int) (*LocalBackend, error) {
	l, err := lru.New[string, localItem](size)
	if err != nil {
		return nil, err
	}
	return &LocalBackend{lru: l}, nil
}

func (b *LocalBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(item.expiresAt) {
		b.lru.Remove(key)
		return nil, false, nil
	}
	return item.data, true, nil
}

func (b *LocalBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lru.Add(key, localItem{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lru.Remove(key)
	return nil
}

func (b *LocalBackend) DeletePrefix(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range b.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			b.lru.Remove(key)
		}
	}
	return nil
}
